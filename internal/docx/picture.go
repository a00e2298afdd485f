package docx

import (
	"fmt"
	"strings"
)

// PictureFragment returns a fragment holding one paragraph with an inline
// picture of the given size in inches. ext is the media file extension
// (".png", ".jpeg", ...).
func PictureFragment(data []byte, ext string, width, height float64) *Fragment {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	const id = "rIdPicture"
	return &Fragment{
		Elements: [][]byte{pictureXML(id, width, height)},
		Rels: []Rel{{
			ID:     id,
			Type:   RelImage,
			Target: "picture" + strings.ToLower(ext),
			Data:   data,
		}},
		relPrefix: "r",
	}
}

func pictureXML(relID string, width, height float64) []byte {
	cx, cy := emu(width), emu(height)
	return []byte(fmt.Sprintf(`<w:p><w:r><w:drawing>`+
		`<wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/>`+
		`<wp:docPr id="1" name="Picture"/>`+
		`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="0" name="Picture"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`,
		cx, cy, relID, cx, cy))
}

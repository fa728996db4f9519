package render

import "encoding/xml"

type Link struct {
	Href string `json:"href"`
}

// Links is the HAL-style _links object. In XML each relation becomes a
// <link rel="..." href="..."/> element.
type Links struct {
	Parent Link `json:"parent"`
	Self   Link `json:"self"`
}

func NewLinks(parent, self string) Links {
	return Links{Parent: Link{Href: parent}, Self: Link{Href: self}}
}

func (l Links) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	for _, rel := range []struct{ name, href string }{
		{"parent", l.Parent.Href},
		{"self", l.Self.Href},
	} {
		el := xml.StartElement{Name: start.Name, Attr: []xml.Attr{
			{Name: xml.Name{Local: "rel"}, Value: rel.name},
			{Name: xml.Name{Local: "href"}, Value: rel.href},
		}}
		if err := e.EncodeToken(el); err != nil {
			return err
		}
		if err := e.EncodeToken(el.End()); err != nil {
			return err
		}
	}
	return nil
}

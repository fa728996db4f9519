package user

import (
	"encoding/xml"
	"strconv"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/render"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
)

// BasePath is the users collection URL.
const BasePath = "/api/v1/users"

func ItemPath(id int64) string {
	return BasePath + "/" + strconv.FormatInt(id, 10)
}

// View is the outward representation of a user. The password hash never
// appears in it.
type View struct {
	ID    int64        `json:"id" xml:"id,attr"`
	Email string       `json:"email" xml:"email"`
	Roles []string     `json:"roles" xml:"roles>role"`
	Links render.Links `json:"_links" xml:"link"`
}

func NewView(u entity.User) View {
	return View{
		ID:    u.ID,
		Email: u.Email,
		Roles: u.EffectiveRoles(),
		Links: render.NewLinks(BasePath, ItemPath(u.ID)),
	}
}

// Document wraps a single user: {"user": {...}}.
type Document struct {
	XMLName xml.Name `json:"-" xml:"response"`
	User    View     `json:"user" xml:"user"`
}

type collectionItem struct {
	User View `json:"user"`
}

func (i collectionItem) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(i.User, start)
}

// CollectionDocument wraps a list: {"users": [{"user": {...}}, ...]}.
type CollectionDocument struct {
	XMLName xml.Name         `json:"-" xml:"response"`
	Users   []collectionItem `json:"users" xml:"users>user"`
}

func NewCollectionDocument(users []entity.User) CollectionDocument {
	doc := CollectionDocument{Users: make([]collectionItem, 0, len(users))}
	for _, u := range users {
		doc.Users = append(doc.Users, collectionItem{User: NewView(u)})
	}
	return doc
}

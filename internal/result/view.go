package result

import (
	"encoding/xml"
	"strconv"
	"time"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/render"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/result/entity"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user"
	userentity "github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
)

const BasePath = "/api/v1/results"

func ItemPath(id int64) string {
	return BasePath + "/" + strconv.FormatInt(id, 10)
}

// View is the outward representation of a result with its owner embedded.
type View struct {
	ID    int64        `json:"id" xml:"id,attr"`
	Value int64        `json:"result" xml:"result"`
	User  user.View    `json:"user" xml:"user"`
	Time  string       `json:"time" xml:"time"`
	Links render.Links `json:"_links" xml:"link"`
}

func NewView(r entity.Result) View {
	owner := userentity.User{ID: r.UserID}
	if r.Owner != nil {
		owner = *r.Owner
	}
	return View{
		ID:    r.ID,
		Value: r.Value,
		User:  user.NewView(owner),
		Time:  r.Time.UTC().Format(time.RFC3339),
		Links: render.NewLinks(BasePath, ItemPath(r.ID)),
	}
}

type Document struct {
	XMLName xml.Name `json:"-" xml:"response"`
	Result  View     `json:"result" xml:"result"`
}

type collectionItem struct {
	Result View `json:"result"`
}

func (i collectionItem) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(i.Result, start)
}

type CollectionDocument struct {
	XMLName xml.Name         `json:"-" xml:"response"`
	Results []collectionItem `json:"results" xml:"results>result"`
}

func NewCollectionDocument(results []entity.Result) CollectionDocument {
	doc := CollectionDocument{Results: make([]collectionItem, 0, len(results))}
	for _, r := range results {
		doc.Results = append(doc.Results, collectionItem{Result: NewView(r)})
	}
	return doc
}

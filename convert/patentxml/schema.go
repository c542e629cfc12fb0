package patentxml

import (
	"encoding/xml"
)

// rootElement is the document element of a grant.
const rootElement = "us-patent-grant"

type grant struct {
	XMLName     xml.Name
	File        string        `xml:"file,attr"`
	DTDVersion  string        `xml:"dtd-version,attr"`
	Bib         bibliographic `xml:"us-bibliographic-data-grant"`
	Abstract    textContent   `xml:"abstract"`
	Description textContent   `xml:"description"`
}

type bibliographic struct {
	Publication documentID  `xml:"publication-reference>document-id"`
	Application application `xml:"application-reference"`
	SeriesCode  string      `xml:"us-application-series-code"`
	IPCR        []ipcr      `xml:"classifications-ipcr>classification-ipcr"`
	National    national    `xml:"classification-national"`
	Title       textContent `xml:"invention-title"`
	NumClaims   string      `xml:"number-of-claims"`
	Related     related     `xml:"us-related-documents"`
	Assignees   []party     `xml:"assignees>assignee"`

	// v4.0 - v4.2
	Citations  []citation `xml:"references-cited>citation"`
	Applicants []party    `xml:"parties>applicants>applicant"`
	Agents     []party    `xml:"parties>agents>agent"`

	// v4.3+
	USCitations  []citation `xml:"us-references-cited>us-citation"`
	USApplicants []party    `xml:"us-parties>us-applicants>us-applicant"`
	Inventors    []party    `xml:"us-parties>inventors>inventor"`
	USAgents     []party    `xml:"us-parties>agents>agent"`
}

type documentID struct {
	Country   string `xml:"country"`
	DocNumber string `xml:"doc-number"`
	Kind      string `xml:"kind"`
	Name      string `xml:"name"`
	Date      string `xml:"date"`
}

type application struct {
	Type  string     `xml:"appl-type,attr"`
	DocID documentID `xml:"document-id"`
}

type ipcr struct {
	Section   string `xml:"section"`
	Class     string `xml:"class"`
	Subclass  string `xml:"subclass"`
	MainGroup string `xml:"main-group"`
	Subgroup  string `xml:"subgroup"`
}

type national struct {
	Country string   `xml:"country"`
	Main    string   `xml:"main-classification"`
	Further []string `xml:"further-classification"`
}

type citation struct {
	Patent    *patentCitation `xml:"patcit"`
	NonPatent *otherCitation  `xml:"nplcit"`
	Category  string          `xml:"category"`
}

type patentCitation struct {
	Num   string     `xml:"num,attr"`
	DocID documentID `xml:"document-id"`
}

type otherCitation struct {
	Num  string      `xml:"num,attr"`
	Text textContent `xml:"othercit"`
}

type addressBook struct {
	OrgName   string `xml:"orgname"`
	LastName  string `xml:"last-name"`
	FirstName string `xml:"first-name"`
	Role      string `xml:"role"`
	City      string `xml:"address>city"`
	State     string `xml:"address>state"`
	Country   string `xml:"address>country"`
}

type party struct {
	Sequence    string      `xml:"sequence,attr"`
	AppType     string      `xml:"app-type,attr"`
	RepType     string      `xml:"rep-type,attr"`
	AddressBook addressBook `xml:"addressbook"`
}

// related holds us-related-documents, whose children are named after the
// relation (continuation, division, us-provisional-application, ...).
type related struct {
	Docs []relatedDoc
}

type relatedDoc struct {
	Relation string
	Parent   documentID
	Status   string
	Child    documentID
	DocID    documentID
}

type relatedElement struct {
	Relation struct {
		Parent struct {
			DocID  documentID `xml:"document-id"`
			Status string     `xml:"parent-status"`
		} `xml:"parent-doc"`
		Child struct {
			DocID documentID `xml:"document-id"`
		} `xml:"child-doc"`
	} `xml:"relation"`
	DocID documentID `xml:"document-id"`
}

// UnmarshalXML decodes each child element as one related document.
func (r *related) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			var el relatedElement
			if err := d.DecodeElement(&el, &tok); err != nil {
				return err
			}
			r.Docs = append(r.Docs, relatedDoc{
				Relation: tok.Name.Local,
				Parent:   el.Relation.Parent.DocID,
				Status:   el.Relation.Parent.Status,
				Child:    el.Relation.Child.DocID,
				DocID:    el.DocID,
			})
		case xml.EndElement:
			return nil
		}
	}
}

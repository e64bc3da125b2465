package changelog

import (
	"fmt"
	"regexp"

	"liquigen/domain/form"

	"github.com/beevik/etree"
)

const (
	nsChangelog    = "http://www.liquibase.org/xml/ns/dbchangelog"
	nsXSI          = "http://www.w3.org/2001/XMLSchema-instance"
	nsExt          = "http://www.liquibase.org/xml/ns/dbchangelog-ext"
	nsMongo        = "http://www.liquibase.org/xml/ns/mongodb"
	nsMongoPro     = "http://www.liquibase.org/xml/ns/pro-mongodb"
	schemaLocation = nsChangelog + " http://www.liquibase.org/xml/ns/dbchangelog/dbchangelog-latest.xsd " +
		nsExt + " http://www.liquibase.org/xml/ns/dbchangelog/dbchangelog-ext.xsd " +
		nsMongoPro + " http://www.liquibase.org/xml/ns/pro-mongodb/liquibase-pro-mongodb-latest.xsd " +
		nsMongo + " http://www.liquibase.org/xml/ns/mongodb/liquibase-mongodb-latest.xsd"
)

// fallbackFileName is used when a file key sanitizes to nothing
const fallbackFileName = "changelog"

var (
	unsafeRun  = regexp.MustCompile(`[\\/:*?"<>|\s]+`)
	disallowed = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
)

// SanitizeFileName makes an output file key safe to use as a file name
func SanitizeFileName(key string) string {
	name := unsafeRun.ReplaceAllString(key, "_")
	name = disallowed.ReplaceAllString(name, "")
	if name == "" {
		return fallbackFileName
	}
	return name
}

// FileName is the document name for a group: {key}.xml for inserts and
// {key}_updates.xml for updates
func FileName(group *form.Group) string {
	name := SanitizeFileName(group.OutputFileKey)
	if group.Operation == form.OperationUpdate {
		return name + "_updates.xml"
	}
	return name + ".xml"
}

// ChangesetID is the stable changeSet id for a group
func ChangesetID(group *form.Group) string {
	return fmt.Sprintf("%s_%s", group.ChangesetID, group.Operation)
}

// ShapeOf picks the operation element a group renders with
func ShapeOf(group *form.Group) form.Shape {
	single := len(group.Records) == 1
	switch {
	case group.Operation == form.OperationInsert && single:
		return form.ShapeSingleInsert
	case group.Operation == form.OperationInsert:
		return form.ShapeBulkInsert
	case single:
		return form.ShapeSingleUpdate
	default:
		return form.ShapeBulkUpdate
	}
}

// Rendered is a document ready to be written
type Rendered struct {
	FileName    string
	ChangesetID string
	Shape       form.Shape
	Content     []byte
}

// Renderer turns groups into Liquibase MongoDB changelogs
type Renderer struct {
	author     string
	collection string
}

// NewRenderer creates a renderer stamping author and collection into every changeSet
func NewRenderer(author, collection string) *Renderer {
	return &Renderer{author: author, collection: collection}
}

// Render builds the changelog for one group
func (r *Renderer) Render(group *form.Group) (*Rendered, error) {
	if group == nil || len(group.Records) == 0 {
		return nil, fmt.Errorf("cannot render an empty group")
	}

	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalText = true
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("databaseChangeLog")
	root.CreateAttr("xmlns", nsChangelog)
	root.CreateAttr("xmlns:xsi", nsXSI)
	root.CreateAttr("xmlns:ext", nsExt)
	root.CreateAttr("xmlns:mongodb", nsMongo)
	root.CreateAttr("xmlns:mongodb-pro", nsMongoPro)
	root.CreateAttr("xsi:schemaLocation", schemaLocation)

	id := ChangesetID(group)
	changeSet := root.CreateElement("changeSet")
	changeSet.CreateAttr("id", id)
	changeSet.CreateAttr("author", r.author)

	shape := ShapeOf(group)
	var err error
	switch group.Operation {
	case form.OperationInsert:
		err = r.renderInserts(changeSet, group, shape)
	case form.OperationUpdate:
		err = r.renderUpdates(changeSet, group, shape)
	default:
		err = fmt.Errorf("unknown operation %q", group.Operation)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", group.OutputFileKey, err)
	}

	doc.Indent(2)
	content, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", group.OutputFileKey, err)
	}

	return &Rendered{
		FileName:    FileName(group),
		ChangesetID: id,
		Shape:       shape,
		Content:     content,
	}, nil
}

func (r *Renderer) renderInserts(changeSet *etree.Element, group *form.Group, shape form.Shape) error {
	docs := make([]string, 0, len(group.Records))
	for _, rec := range group.Records {
		ins, ok := rec.(form.InsertRecord)
		if !ok {
			return fmt.Errorf("update record %s in insert group", rec.Key())
		}
		body, err := insertDocument(ins)
		if err != nil {
			return err
		}
		docs = append(docs, body)
	}

	if shape == form.ShapeSingleInsert {
		op := r.operation(changeSet, "mongodb:insertOne")
		op.CreateElement("mongodb:document").SetText(indent(docs[0]))
		return nil
	}

	list, err := array(docs)
	if err != nil {
		return err
	}
	op := r.operation(changeSet, "mongodb:insertMany")
	op.CreateElement("mongodb:documents").SetText(indent(list))
	return nil
}

func (r *Renderer) renderUpdates(changeSet *etree.Element, group *form.Group, shape form.Shape) error {
	updates := make([]form.UpdateRecord, 0, len(group.Records))
	for _, rec := range group.Records {
		upd, ok := rec.(form.UpdateRecord)
		if !ok {
			return fmt.Errorf("insert record %s in update group", rec.Key())
		}
		updates = append(updates, upd)
	}

	if shape == form.ShapeSingleUpdate {
		filter, err := updateFilter(updates[0])
		if err != nil {
			return err
		}
		body, err := updateBody(updates[0])
		if err != nil {
			return err
		}
		op := r.operation(changeSet, "mongodb:updateOne")
		op.CreateElement("mongodb:filter").SetText(indent(filter))
		op.CreateElement("mongodb:update").SetText(indent(body))
		return nil
	}

	cmd, err := updateCommand(r.collection, updates)
	if err != nil {
		return err
	}
	op := changeSet.CreateElement("mongodb:runCommand")
	op.CreateElement("mongodb:command").SetText(indent(cmd))
	return nil
}

func (r *Renderer) operation(changeSet *etree.Element, tag string) *etree.Element {
	op := changeSet.CreateElement(tag)
	op.CreateAttr("collectionName", r.collection)
	return op
}

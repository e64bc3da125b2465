package changelog

import (
	"strings"

	"liquigen/domain/form"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

var prettyOptions = &pretty.Options{Width: 80, Indent: "  "}

// pathKey escapes name so sjson treats it as one literal object key
func pathKey(name string) string {
	var b strings.Builder
	digits := name != ""
	for _, r := range name {
		if r < '0' || r > '9' {
			digits = false
		}
		switch r {
		case '\\', '.', '|', '#', '@', '*', '?', ':', '!', '[', '{':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	if digits {
		return ":" + b.String()
	}
	return b.String()
}

// object builds a JSON object with keys in the order given. A repeated name
// overwrites the earlier value in place.
func object(fields []form.Attribute) (string, error) {
	doc := "{}"
	for _, f := range fields {
		var err error
		doc, err = sjson.Set(doc, pathKey(f.Name), f.Value)
		if err != nil {
			return "", err
		}
	}
	return doc, nil
}

// array joins raw JSON values into a JSON array
func array(raws []string) (string, error) {
	doc := "[]"
	for _, raw := range raws {
		var err error
		doc, err = sjson.SetRaw(doc, "-1", raw)
		if err != nil {
			return "", err
		}
	}
	return doc, nil
}

func indent(raw string) string {
	return strings.TrimRight(string(pretty.PrettyOptions([]byte(raw), prettyOptions)), "\n")
}

// insertFields lays out an insert document: fixed fields first, then
// dynamic attributes in column order. Empty optionals are omitted.
func insertFields(r form.InsertRecord) []form.Attribute {
	fields := []form.Attribute{
		{Name: "formName", Value: r.FormName},
		{Name: "formNbr", Value: r.FormNbr},
	}
	if r.EditionDate != "" {
		fields = append(fields, form.Attribute{Name: "editionDt", Value: r.EditionDate})
	}
	fields = append(fields, r.Indicators...)
	fields = append(fields,
		form.Attribute{Name: "effectiveDate", Value: r.EffectiveDate},
		form.Attribute{Name: "expirationDate", Value: r.ExpirationDate},
	)
	if r.LineOfBusiness != "" {
		fields = append(fields, form.Attribute{Name: "lob", Value: r.LineOfBusiness})
	}
	fields = append(fields, form.Attribute{Name: "recipientTypes", Value: r.RecipientTypes})
	if r.SortKey != nil {
		fields = append(fields, form.Attribute{Name: "sortingKeys", Value: *r.SortKey})
	}
	return append(fields, r.Attributes...)
}

func insertDocument(r form.InsertRecord) (string, error) {
	return object(insertFields(r))
}

func updateFilter(r form.UpdateRecord) (string, error) {
	return object([]form.Attribute{{Name: "formNbr", Value: r.FormNbr}})
}

func updateBody(r form.UpdateRecord) (string, error) {
	set, err := object(r.AttributesToUpdate())
	if err != nil {
		return "", err
	}
	return sjson.SetRaw("{}", "$set", set)
}

// updateCommand builds the runCommand payload for a bulk update
func updateCommand(collection string, records []form.UpdateRecord) (string, error) {
	statements := make([]string, 0, len(records))
	for _, r := range records {
		filter, err := updateFilter(r)
		if err != nil {
			return "", err
		}
		body, err := updateBody(r)
		if err != nil {
			return "", err
		}
		stmt, err := sjson.SetRaw("{}", "q", filter)
		if err != nil {
			return "", err
		}
		if stmt, err = sjson.SetRaw(stmt, "u", body); err != nil {
			return "", err
		}
		statements = append(statements, stmt)
	}

	updates, err := array(statements)
	if err != nil {
		return "", err
	}
	cmd, err := sjson.Set("{}", "update", collection)
	if err != nil {
		return "", err
	}
	return sjson.SetRaw(cmd, "updates", updates)
}

package form

// Group is the set of records rendered into one document. All records share
// OutputFileKey and Operation.
type Group struct {
	OutputFileKey string
	Operation     Operation
	// ChangesetID is taken from the first record that opened the group
	ChangesetID string
	Records     []Record
}

// Keys returns the ledger keys of every record in the group
func (g *Group) Keys() []string {
	keys := make([]string, 0, len(g.Records))
	for _, r := range g.Records {
		keys = append(keys, r.Key().String())
	}
	return keys
}

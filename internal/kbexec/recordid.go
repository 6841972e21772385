package kbexec

import (
	"strconv"
	"strings"

	"graphkb-api/internal/kberr"
)

// RecordID is a persistent record identifier in "#cluster:position"
// form (spec.md §6.5). Record IDs are rendered literally into compiled
// statements rather than bound as parameters, working around a known
// limitation in the target driver.
type RecordID struct {
	Cluster  int64
	Position int64
}

// ParseRecordID parses the "#cluster:position" form. It is the single
// place every fixed compiler that literalizes an ID list or a target
// ID goes through, so a malformed ID always fails the same way.
func ParseRecordID(s string) (RecordID, error) {
	if !strings.HasPrefix(s, "#") {
		return RecordID{}, kberr.Validationf("record id %q must start with '#'", s)
	}
	body := s[1:]
	parts := strings.SplitN(body, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RecordID{}, kberr.Validationf("record id %q must have the form #cluster:position", s)
	}
	cluster, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return RecordID{}, kberr.Validationf("record id %q has a non-numeric cluster component", s)
	}
	position, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return RecordID{}, kberr.Validationf("record id %q has a non-numeric position component", s)
	}
	return RecordID{Cluster: cluster, Position: position}, nil
}

// String renders the record ID in literal "#cluster:position" form,
// verbatim, with no elision of its own. Negative cluster IDs denote
// abstract, non-persisted records and per spec.md §6.5 must never reach
// a user-visible payload; querycompile checks Abstract() before ever
// calling String() on an ID bound for a compiled statement (its two
// record-ID literal rendering sites, compileTarget's IDListTarget case
// and bindValue), rejecting an abstract ID with a ValidationError
// instead of emitting it. A result-set serializer sitting outside this
// module's scope (spec.md §1, §6.3) is responsible for the same check
// on any RecordID it reads back off a row.
func (r RecordID) String() string {
	return "#" + strconv.FormatInt(r.Cluster, 10) + ":" + strconv.FormatInt(r.Position, 10)
}

// Abstract reports whether this ID denotes an abstract, non-persisted
// record (negative cluster component).
func (r RecordID) Abstract() bool {
	return r.Cluster < 0
}

// ParseRecordIDList parses a caller-ordered list of ID strings,
// preserving order, failing on the first malformed element.
func ParseRecordIDList(ss []string) ([]RecordID, error) {
	if len(ss) == 0 {
		return nil, kberr.Validationf("target id list must not be empty")
	}
	out := make([]RecordID, 0, len(ss))
	for _, s := range ss {
		id, err := ParseRecordID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

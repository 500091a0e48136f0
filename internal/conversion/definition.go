package conversion

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	mainFile    = "SEMS main file"
	mappingFile = "SEMS candidate mapping file"
)

// SEMS main file record types and their field counts, type column included.
var recordFields = map[string]int{
	"E": 6, // E,title,date,countyID,countyName,state
	"P": 3, // P,precinctID,name
	"D": 3, // D,districtID,name
	"Y": 4, // Y,partyID,name,abbrev
	"C": 5, // C,contestID,districtID,title,seats
	"K": 5, // K,contestID,semsCandidateID,name,partyID
}

type semsCandidate struct {
	line    int
	contest string
	semsID  string
	name    string
	partyID string
}

type contestRef struct {
	line     int
	district string
}

// ConvertDefinition builds a Vx election definition from a SEMS main file
// and its candidate mapping file.
func (c *Converter) ConvertDefinition(ctx context.Context, mainRef, mappingRef string) (*Election, error) {
	mainData, err := c.src.Read(ctx, mainRef)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", mainFile, err)
	}
	mappingData, err := c.src.Read(ctx, mappingRef)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", mappingFile, err)
	}

	el, candidates, err := parseMain(mainData)
	if err != nil {
		return nil, err
	}
	mapped, order, err := parseMapping(mappingData)
	if err != nil {
		return nil, err
	}

	used := make(map[mapKey]bool, len(mapped))
	for _, k := range candidates {
		key := mapKey{contest: k.contest, semsID: k.semsID}
		m, ok := mapped[key]
		if !ok {
			return nil, parseErr(mainFile, k.line, "candidate %q in contest %q has no mapping", k.semsID, k.contest)
		}
		used[key] = true
		ct, _ := el.contest(k.contest)
		for _, existing := range ct.Candidates {
			if existing.ID == m.vxID {
				return nil, parseErr(mappingFile, m.line, "candidate id %q used twice in contest %q", m.vxID, k.contest)
			}
		}
		ct.Candidates = append(ct.Candidates, Candidate{ID: m.vxID, Name: k.name, PartyID: k.partyID})
	}
	for _, key := range order {
		if !used[key] {
			return nil, parseErr(mappingFile, mapped[key].line, "unknown candidate %q in contest %q", key.semsID, key.contest)
		}
	}
	return el, nil
}

func newReader(data []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.Comment = '#'
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	return r
}

// eachRecord calls fn with every CSV record and its 1-based line number.
func eachRecord(file string, data []byte, fn func(line int, rec []string) error) error {
	r := newReader(data)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return parseErr(file, pe.Line, "%v", pe.Err)
			}
			return parseErr(file, 0, "%v", err)
		}
		line, _ := r.FieldPos(0)
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

func parseMain(data []byte) (*Election, []semsCandidate, error) {
	var (
		el         Election
		haveHeader bool
		candidates []semsCandidate
		contests   = map[string]contestRef{}
		seen       = map[string]map[string]bool{}
	)

	dup := func(typ, id string) bool {
		if seen[typ] == nil {
			seen[typ] = map[string]bool{}
		}
		if seen[typ][id] {
			return true
		}
		seen[typ][id] = true
		return false
	}

	err := eachRecord(mainFile, data, func(line int, rec []string) error {
		typ := strings.ToUpper(rec[0])
		want, ok := recordFields[typ]
		if !ok {
			return parseErr(mainFile, line, "unknown record type %q", rec[0])
		}
		if len(rec) != want {
			return parseErr(mainFile, line, "record %s expects %d fields, got %d", typ, want, len(rec))
		}
		if typ != "E" && rec[1] == "" {
			return parseErr(mainFile, line, "record %s has an empty id", typ)
		}

		switch typ {
		case "E":
			if haveHeader {
				return parseErr(mainFile, line, "duplicate election record")
			}
			haveHeader = true
			el.Title, el.Date, el.State = rec[1], rec[2], rec[5]
			el.County = County{ID: rec[3], Name: rec[4]}
		case "P":
			if dup(typ, rec[1]) {
				return parseErr(mainFile, line, "duplicate precinct %q", rec[1])
			}
			el.Precincts = append(el.Precincts, Precinct{ID: rec[1], Name: rec[2]})
		case "D":
			if dup(typ, rec[1]) {
				return parseErr(mainFile, line, "duplicate district %q", rec[1])
			}
			el.Districts = append(el.Districts, District{ID: rec[1], Name: rec[2]})
		case "Y":
			if dup(typ, rec[1]) {
				return parseErr(mainFile, line, "duplicate party %q", rec[1])
			}
			el.Parties = append(el.Parties, Party{ID: rec[1], Name: rec[2], Abbreviation: rec[3]})
		case "C":
			if dup(typ, rec[1]) {
				return parseErr(mainFile, line, "duplicate contest %q", rec[1])
			}
			seats, err := strconv.Atoi(rec[4])
			if err != nil || seats < 1 {
				return parseErr(mainFile, line, "contest %q: seats must be a positive integer, got %q", rec[1], rec[4])
			}
			contests[rec[1]] = contestRef{line: line, district: rec[2]}
			el.Contests = append(el.Contests, Contest{
				ID:         rec[1],
				Type:       "candidate",
				DistrictID: rec[2],
				Title:      rec[3],
				Seats:      seats,
				Candidates: []Candidate{},
			})
		case "K":
			candidates = append(candidates, semsCandidate{
				line: line, contest: rec[1], semsID: rec[2], name: rec[3], partyID: rec[4],
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if !haveHeader {
		return nil, nil, parseErr(mainFile, 0, "missing election record")
	}
	for _, ct := range el.Contests {
		if ref := contests[ct.ID]; !seen["D"][ref.district] {
			return nil, nil, parseErr(mainFile, ref.line, "contest %q references unknown district %q", ct.ID, ref.district)
		}
	}
	perContest := map[string]bool{}
	for _, k := range candidates {
		if _, ok := contests[k.contest]; !ok {
			return nil, nil, parseErr(mainFile, k.line, "candidate %q references unknown contest %q", k.semsID, k.contest)
		}
		if k.partyID != "" && !seen["Y"][k.partyID] {
			return nil, nil, parseErr(mainFile, k.line, "candidate %q references unknown party %q", k.semsID, k.partyID)
		}
		key := k.contest + "\x00" + k.semsID
		if perContest[key] {
			return nil, nil, parseErr(mainFile, k.line, "duplicate candidate %q in contest %q", k.semsID, k.contest)
		}
		perContest[key] = true
	}
	if el.Parties == nil {
		el.Parties = []Party{}
	}
	if el.Districts == nil {
		el.Districts = []District{}
	}
	if el.Precincts == nil {
		el.Precincts = []Precinct{}
	}
	if el.Contests == nil {
		el.Contests = []Contest{}
	}
	return &el, candidates, nil
}

type mapKey struct {
	contest string
	semsID  string
}

type mapping struct {
	line int
	vxID string
}

// parseMapping returns the mapping rows keyed by SEMS candidate, and the keys in file order.
func parseMapping(data []byte) (map[mapKey]mapping, []mapKey, error) {
	out := map[mapKey]mapping{}
	var order []mapKey
	err := eachRecord(mappingFile, data, func(line int, rec []string) error {
		if len(rec) != 3 {
			return parseErr(mappingFile, line, "expected 3 fields, got %d", len(rec))
		}
		if rec[0] == "" || rec[1] == "" || rec[2] == "" {
			return parseErr(mappingFile, line, "empty field")
		}
		key := mapKey{contest: rec[0], semsID: rec[1]}
		if _, ok := out[key]; ok {
			return parseErr(mappingFile, line, "duplicate mapping for candidate %q in contest %q", rec[1], rec[0])
		}
		out[key] = mapping{line: line, vxID: rec[2]}
		order = append(order, key)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, order, nil
}

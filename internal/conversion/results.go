package conversion

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

const (
	definitionFile = "Vx Election Definition"
	talliesFile    = "Vx Tallies"
)

// Tallies is the Vx tallies export: per precinct, per contest vote counts.
type Tallies struct {
	TalliesByPrecinct map[string]map[string]ContestTally `json:"talliesByPrecinct"`
}

type ContestTally struct {
	Ballots    int            `json:"ballots"`
	Undervotes int            `json:"undervotes"`
	Overvotes  int            `json:"overvotes"`
	Tallies    map[string]int `json:"tallies"`
}

// ConvertResults renders SEMS results text from an election definition and
// its tallies. Rows follow the definition's precinct, contest and candidate
// order; each contest ends with its undervote and overvote rows.
func (c *Converter) ConvertResults(ctx context.Context, definitionRef, talliesRef string) (string, error) {
	defData, err := c.src.Read(ctx, definitionRef)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", definitionFile, err)
	}
	talData, err := c.src.Read(ctx, talliesRef)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", talliesFile, err)
	}

	var el Election
	if err := c.def.Unmarshal(defData, &el); err != nil {
		return "", parseErr(definitionFile, 0, "cannot decode %s: %v", c.def.ContentType(), err)
	}
	var tl Tallies
	if err := json.Unmarshal(talData, &tl); err != nil {
		return "", parseErr(talliesFile, 0, "invalid json: %v", err)
	}
	if err := validateTallies(&el, &tl); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, p := range el.Precincts {
		byContest, ok := tl.TalliesByPrecinct[p.ID]
		if !ok {
			continue
		}
		for _, ct := range el.Contests {
			t, ok := byContest[ct.ID]
			if !ok {
				continue
			}
			row := func(candID, candName, partyID string, votes int) {
				_ = w.Write([]string{el.County.ID, p.ID, ct.ID, ct.Title, candID, candName, partyID, strconv.Itoa(votes)})
			}
			for _, cand := range ct.Candidates {
				row(cand.ID, cand.Name, cand.PartyID, t.Tallies[cand.ID])
			}
			row("undervotes", "Undervotes", "", t.Undervotes)
			row("overvotes", "Overvotes", "", t.Overvotes)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func validateTallies(el *Election, tl *Tallies) error {
	for _, pid := range sortedKeys(tl.TalliesByPrecinct) {
		if _, ok := el.precinct(pid); !ok {
			return parseErr(talliesFile, 0, "unknown precinct %q", pid)
		}
		byContest := tl.TalliesByPrecinct[pid]
		for _, cid := range sortedKeys(byContest) {
			ct, ok := el.contest(cid)
			if !ok {
				return parseErr(talliesFile, 0, "precinct %q: unknown contest %q", pid, cid)
			}
			t := byContest[cid]
			if t.Ballots < 0 || t.Undervotes < 0 || t.Overvotes < 0 {
				return parseErr(talliesFile, 0, "precinct %q contest %q: negative count", pid, cid)
			}
			for _, candID := range sortedKeys(t.Tallies) {
				if !hasCandidate(ct, candID) {
					return parseErr(talliesFile, 0, "precinct %q contest %q: unknown candidate %q", pid, cid, candID)
				}
				if t.Tallies[candID] < 0 {
					return parseErr(talliesFile, 0, "precinct %q contest %q: negative count for %q", pid, cid, candID)
				}
			}
		}
	}
	return nil
}

func hasCandidate(ct *Contest, id string) bool {
	for _, c := range ct.Candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

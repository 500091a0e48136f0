// Package conversion translates between SEMS exports and Vx documents.
package conversion

import (
	"context"
	"fmt"

	"sems-converter/internal/codec"
)

// BlobReader reads stored content by reference.
type BlobReader interface {
	Read(ctx context.Context, ref string) ([]byte, error)
}

// Converter reads its inputs through the content store so references need
// not be filesystem paths. The election definition it writes is the one it
// reads back as a tallies input, so both directions share one codec.
type Converter struct {
	src BlobReader
	def codec.Codec
}

type Option func(*Converter)

// WithDefinitionCodec sets the election definition encoding (default JSON).
func WithDefinitionCodec(c codec.Codec) Option {
	return func(cv *Converter) {
		if c != nil {
			cv.def = c
		}
	}
}

func New(src BlobReader, opts ...Option) *Converter {
	c := &Converter{src: src, def: codec.JSON()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// DefinitionCodec is the encoding of EncodeDefinition and of the definition
// input of ConvertResults.
func (c *Converter) DefinitionCodec() codec.Codec { return c.def }

func (c *Converter) EncodeDefinition(el *Election) ([]byte, error) {
	return c.def.Marshal(el)
}

// Election is the Vx election definition document.
type Election struct {
	Title     string     `json:"title" cbor:"title"`
	Date      string     `json:"date" cbor:"date"`
	State     string     `json:"state" cbor:"state"`
	County    County     `json:"county" cbor:"county"`
	Parties   []Party    `json:"parties" cbor:"parties"`
	Districts []District `json:"districts" cbor:"districts"`
	Precincts []Precinct `json:"precincts" cbor:"precincts"`
	Contests  []Contest  `json:"contests" cbor:"contests"`
}

type County struct {
	ID   string `json:"id" cbor:"id"`
	Name string `json:"name" cbor:"name"`
}

type Party struct {
	ID           string `json:"id" cbor:"id"`
	Name         string `json:"name" cbor:"name"`
	Abbreviation string `json:"abbrev" cbor:"abbrev"`
}

type District struct {
	ID   string `json:"id" cbor:"id"`
	Name string `json:"name" cbor:"name"`
}

type Precinct struct {
	ID   string `json:"id" cbor:"id"`
	Name string `json:"name" cbor:"name"`
}

type Contest struct {
	ID         string      `json:"id" cbor:"id"`
	Type       string      `json:"type" cbor:"type"`
	DistrictID string      `json:"districtId" cbor:"districtId"`
	Title      string      `json:"title" cbor:"title"`
	Seats      int         `json:"seats" cbor:"seats"`
	Candidates []Candidate `json:"candidates" cbor:"candidates"`
}

type Candidate struct {
	ID      string `json:"id" cbor:"id"`
	Name    string `json:"name" cbor:"name"`
	PartyID string `json:"partyId,omitempty" cbor:"partyId,omitempty"`
}

func (e *Election) contest(id string) (*Contest, bool) {
	for i := range e.Contests {
		if e.Contests[i].ID == id {
			return &e.Contests[i], true
		}
	}
	return nil, false
}

func (e *Election) precinct(id string) (*Precinct, bool) {
	for i := range e.Precincts {
		if e.Precincts[i].ID == id {
			return &e.Precincts[i], true
		}
	}
	return nil, false
}

// ParseError locates a problem in one of the input files.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

func parseErr(file string, line int, format string, args ...any) error {
	return &ParseError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

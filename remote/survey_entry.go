package remote

import (
	"bytes"
	"sort"

	"emperror.dev/errors"
	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
)

// surveyNameKey is the one column every survey file has. All other columns
// are question labels that differ from survey to survey.
const surveyNameKey = "Name"

// Pair is a question label and the answer given to it.
type Pair struct {
	Key   string
	Value string
}

// SurveyEntry is one row of a survey file. The set of question columns is
// not known in advance, so answers are kept as ordered pairs.
type SurveyEntry struct {
	Name    string
	answers []Pair
}

var (
	_ json.Unmarshaler = (*SurveyEntry)(nil)
	_ json.Marshaler   = SurveyEntry{}
)

// NewSurveyEntry builds an entry from a name and answers in display order.
func NewSurveyEntry(name string, answers ...Pair) SurveyEntry {
	return SurveyEntry{Name: name, answers: append([]Pair(nil), answers...)}
}

// UnmarshalJSON decodes a row such as {"Name":"Alice","Q1":"80%"}. Values
// that are not strings are kept as their JSON text.
func (e *SurveyEntry) UnmarshalJSON(b []byte) error {
	var (
		name    string
		hasName bool
		answers []Pair
	)
	err := jsonparser.ObjectEach(b, func(key []byte, value []byte, dt jsonparser.ValueType, _ int) error {
		k, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		var v string
		switch dt {
		case jsonparser.String:
			if v, err = jsonparser.ParseString(value); err != nil {
				return err
			}
		case jsonparser.Null:
		default:
			v = string(value)
		}
		if k == surveyNameKey {
			name, hasName = v, true
			return nil
		}
		answers = append(answers, Pair{Key: k, Value: v})
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "survey entry")
	}
	if !hasName {
		return errors.New("survey entry: missing \"Name\" column")
	}
	e.Name = name
	e.answers = answers
	return nil
}

// MarshalJSON encodes the entry back into a flat object with Name first and
// the answers in their original order.
func (e SurveyEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(k, v string) error {
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}
	if err := write(surveyNameKey, e.Name); err != nil {
		return nil, err
	}
	for _, p := range e.answers {
		buf.WriteByte(',')
		if err := write(p.Key, p.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Pairs returns every answer sorted by question label.
func (e SurveyEntry) Pairs() []Pair {
	out := append([]Pair(nil), e.answers...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}

// FirstPair returns the first answer in the order of the file's columns. It
// is used where only one answer fits, such as single question surveys.
func (e SurveyEntry) FirstPair() (Pair, bool) {
	if len(e.answers) == 0 {
		return Pair{}, false
	}
	return e.answers[0], true
}

// Answer returns the answer given to one question.
func (e SurveyEntry) Answer(key string) (string, bool) {
	for _, p := range e.answers {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

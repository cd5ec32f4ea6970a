// Package piece defines the toy pieces a player can attach to the toy in progress.
// This package is PURE and must NOT import any infrastructure packages.
package piece

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which anchor of the toy a piece fits.
// The numeric values are the type codes of the piece table.
type Kind int

const (
	KindBody     Kind = 0
	KindHead     Kind = 1
	KindRightArm Kind = 2
	KindLeftArm  Kind = 3
	KindLegs     Kind = 4
)

// KindCount is the number of anchors on a toy.
const KindCount = 5

// Kinds lists every kind in anchor order.
var Kinds = [KindCount]Kind{KindBody, KindHead, KindRightArm, KindLeftArm, KindLegs}

var kindNames = map[Kind]string{
	KindBody:     "BODY",
	KindHead:     "HEAD",
	KindRightArm: "R_ARM",
	KindLeftArm:  "L_ARM",
	KindLegs:     "LEGS",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the five anchor kinds.
func (k Kind) Valid() bool {
	return k >= KindBody && k <= KindLegs
}

// KindFromCode converts a numeric type code into a Kind.
func KindFromCode(code int) (Kind, error) {
	k := Kind(code)
	if !k.Valid() {
		return 0, fmt.Errorf("unknown piece type code %d", code)
	}
	return k, nil
}

// ParseKind accepts either the anchor name ("HEAD", "r_arm") or the numeric code.
func ParseKind(s string) (Kind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	if code, err := strconv.Atoi(name); err == nil {
		return KindFromCode(code)
	}
	return 0, fmt.Errorf("unknown piece kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown piece kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Definition is one entry of the piece catalog. Immutable after load: the
// catalog shares one pointer per piece, so holders must not modify it or its Tags.
type Definition struct {
	ID     string   `json:"id"`     // Sprite key, unique per catalog
	Kind   Kind     `json:"kind"`
	Tags   []string `json:"tags"`   // Unique, authoring order kept
	Sprite string   `json:"sprite"` // Opaque visual reference for presentation
}

// HasTag reports whether the definition carries tag, ignoring case.
func (d *Definition) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Set groups pieces that are guaranteed to show up together in a round.
type Set struct {
	Name   string        `json:"name"`
	Pieces []*Definition `json:"pieces"`
}

// Len returns the number of pieces in the set.
func (s Set) Len() int {
	return len(s.Pieces)
}

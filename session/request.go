package session

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Kind int

const (
	Rotate Kind = iota + 1
	Resize
	Greyscale
)

var kindNames = map[Kind]string{
	Rotate:    "rotate",
	Resize:    "resize",
	Greyscale: "greyscale",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "grayscale", "grey", "gray":
		return Greyscale, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown request kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown request kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Request is one toolbar action. Degrees is used by Rotate, Width and Height
// by Resize. Kernel optionally picks a quality interpolator for Resize.
type Request struct {
	Kind    Kind   `json:"kind"`
	Degrees int    `json:"degrees,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Kernel  string `json:"kernel,omitempty"`
}

func RotateBy(degrees int) Request {
	return Request{Kind: Rotate, Degrees: degrees}
}

func ResizeTo(width, height int) Request {
	return Request{Kind: Resize, Width: width, Height: height}
}

func Greyscaled() Request {
	return Request{Kind: Greyscale}
}

// ParseRequests decodes a JSON array of requests.
func ParseRequests(data []byte) ([]Request, error) {
	var reqs []Request
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("could not parse requests: %w", err)
	}
	return reqs, nil
}

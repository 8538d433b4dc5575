package transform

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Short codes used for the compact string form of a transform, the shape the
// session/URL collaborator stores and the CLI accepts.
var shortCodes = map[Kind]string{
	KindMergeFunction:           "mf",
	KindMergeCallNode:           "mcn",
	KindFocusSubtree:            "fs",
	KindFocusFunction:           "ff",
	KindDropFunction:            "df",
	KindCollapseResource:        "cr",
	KindCollapseDirectRecursion: "rec",
	KindCollapseFunctionSubtree: "cfs",
}

// String renders the transform in its compact form, e.g. "mf-12" or
// "fs-0.4.7".
func (tr Transform) String() string {
	code := shortCodes[tr.Kind]
	switch tr.Kind {
	case KindMergeCallNode, KindFocusSubtree:
		parts := make([]string, len(tr.Path))
		for i, fn := range tr.Path {
			parts[i] = strconv.Itoa(int(fn))
		}
		return code + "-" + strings.Join(parts, ".")
	case KindCollapseResource:
		return code + "-" + strconv.Itoa(int(tr.ResourceIndex))
	default:
		return code + "-" + strconv.Itoa(int(tr.FuncIndex))
	}
}

// Parse decodes the compact form produced by String.
func Parse(s string) (Transform, error) {
	code, arg, ok := strings.Cut(s, "-")
	if !ok {
		return Transform{}, errors.Errorf("malformed transform %q", s)
	}
	var kind Kind
	for k, c := range shortCodes {
		if c == code {
			kind = k
		}
	}
	if kind == "" {
		return Transform{}, errors.Errorf("unknown transform code %q", code)
	}
	tr := Transform{Kind: kind}
	switch kind {
	case KindMergeCallNode, KindFocusSubtree:
		for _, part := range strings.Split(arg, ".") {
			fn, err := strconv.ParseInt(part, 10, 32)
			if err != nil {
				return Transform{}, errors.Wrapf(err, "malformed path in transform %q", s)
			}
			tr.Path = append(tr.Path, int32(fn))
		}
	case KindCollapseResource:
		res, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return Transform{}, errors.Wrapf(err, "malformed resource in transform %q", s)
		}
		tr.ResourceIndex = int32(res)
	default:
		fn, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return Transform{}, errors.Wrapf(err, "malformed function in transform %q", s)
		}
		tr.FuncIndex = int32(fn)
	}
	return tr, nil
}

// ParseStack decodes a comma-separated list of compact transforms, oldest
// first.
func ParseStack(s string) ([]Transform, error) {
	if s == "" {
		return nil, nil
	}
	var out []Transform
	for _, part := range strings.Split(s, ",") {
		tr, err := Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

// internal/report/report.go

// Package report renders committed layout trees for hosts and the CLI: JSON
// and text dumps, CBOR snapshots and content digests.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/zeebo/blake3"

	"github.com/xkilldash9x/boxflow/internal/layout"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Box is the serialized form of one node's committed geometry.
type Box struct {
	Handle   string     `json:"handle" cbor:"1,keyasint"`
	ID       string     `json:"id,omitempty" cbor:"2,keyasint,omitempty"`
	X        float64    `json:"x" cbor:"3,keyasint"`
	Y        float64    `json:"y" cbor:"4,keyasint"`
	Width    float64    `json:"width" cbor:"5,keyasint"`
	Height   float64    `json:"height" cbor:"6,keyasint"`
	Margin   [4]float64 `json:"margin" cbor:"7,keyasint"`
	Border   [4]float64 `json:"border" cbor:"8,keyasint"`
	Padding  [4]float64 `json:"padding" cbor:"9,keyasint"`
	Children []Box      `json:"children,omitempty" cbor:"10,keyasint,omitempty"`
}

func edges(e layout.Edges) [4]float64 {
	return [4]float64{e.Top, e.Right, e.Bottom, e.Left}
}

// Collect reads the committed results of root and its descendants. names maps
// handles to host identifiers and may be nil.
func Collect(a *layout.Arena, root layout.Handle, names map[layout.Handle]string) (Box, error) {
	r, err := a.Layout(root)
	if err != nil {
		return Box{}, err
	}
	b := Box{
		Handle:  root.String(),
		ID:      names[root],
		X:       r.X,
		Y:       r.Y,
		Width:   r.Width,
		Height:  r.Height,
		Margin:  edges(r.Margin),
		Border:  edges(r.Border),
		Padding: edges(r.Padding),
	}
	kids, err := a.Children(root)
	if err != nil {
		return Box{}, err
	}
	for _, k := range kids {
		cb, err := Collect(a, k, names)
		if err != nil {
			return Box{}, err
		}
		b.Children = append(b.Children, cb)
	}
	return b, nil
}

// WriteJSON writes the tree as indented JSON.
func WriteJSON(w io.Writer, b Box) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal layout tree: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteText writes one line per node, indented by depth.
func WriteText(w io.Writer, b Box) error {
	var sb strings.Builder
	writeText(&sb, b, 0)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeText(sb *strings.Builder, b Box, depth int) {
	label := b.ID
	if label == "" {
		label = b.Handle
	}
	fmt.Fprintf(sb, "%s%s x=%g y=%g w=%g h=%g\n", strings.Repeat("  ", depth), label, b.X, b.Y, b.Width, b.Height)
	for _, c := range b.Children {
		writeText(sb, c, depth+1)
	}
}

// Dump renders the subtree at root as a JSON string.
func Dump(a *layout.Arena, root layout.Handle) (string, error) {
	b, err := Collect(a, root, nil)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := WriteJSON(&sb, b); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// -- Multi-file Reports --

// File is the report for one laid-out scene.
type File struct {
	Path   string `json:"file"`
	Digest string `json:"digest,omitempty"`
	Layout Box    `json:"layout"`
}

// WriteFilesJSON writes every report as one indented JSON array.
func WriteFilesJSON(w io.Writer, files []File) error {
	if files == nil {
		files = []File{}
	}
	data, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal layout reports: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteFilesText writes a "# path" header, the text tree and, when present,
// the digest for each report.
func WriteFilesText(w io.Writer, files []File) error {
	var sb strings.Builder
	for i, f := range files {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "# %s\n", f.Path)
		writeText(&sb, f.Layout, 0)
		if f.Digest != "" {
			fmt.Fprintf(&sb, "digest %s\n", f.Digest)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// -- Snapshots --

// Snapshot is a binary-encodable capture of a layout tree.
type Snapshot struct {
	Arena string `cbor:"1,keyasint"`
	Root  Box    `cbor:"2,keyasint"`
}

var snapshotMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("report: building cbor encoder: %v", err))
	}
	return mode
}()

// EncodeSnapshot serializes s with deterministic CBOR, so equal trees encode
// to equal bytes.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	data, err := snapshotMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses bytes produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Digest returns the hex BLAKE3 hash of the geometry in b. Handles are left
// out so identical layouts in different arenas hash the same.
func Digest(b Box) (string, error) {
	data, err := snapshotMode.Marshal(stripHandles(b))
	if err != nil {
		return "", fmt.Errorf("encode digest input: %w", err)
	}
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%x", sum[:]), nil
}

func stripHandles(b Box) Box {
	b.Handle = ""
	if len(b.Children) > 0 {
		kids := make([]Box, len(b.Children))
		for i, c := range b.Children {
			kids[i] = stripHandles(c)
		}
		b.Children = kids
	}
	return b
}

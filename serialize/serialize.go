// Package serialize implements the structuring core's persistence format
// (§6.4): a tag-length-value byte stream per block, terminated by a
// zero-length BB_END field. Out-edges are written as block indices and
// resolved back to block.IDs in a separate Link pass, since a block's
// successors may not have been decoded yet when its own BB_OUTEDGES field
// is read.
package serialize

import (
	"encoding/binary"
	"io"

	"github.com/boomslang/structurer/block"
	"github.com/boomslang/structurer/diag"
	"github.com/boomslang/structurer/ir"
	"github.com/boomslang/structurer/proc"
	"github.com/pkg/errors"
)

// Field tags, per §6.4.
const (
	bbType     = 1
	bbOutEdges = 2
	bbRTL      = 3
	bbEnd      = 0
)

// StmtCodec encodes and decodes one ir.Stmt to/from its wire form. The
// structurer has no concrete Stmt type of its own (§6.1 puts the
// instruction decoder out of scope), so reading/writing BB_RTL fields is
// delegated to whatever statement layer a caller plugs in, mirroring the
// "each delegated to the statement layer" note in §6.4.
type StmtCodec interface {
	EncodeStmt(w io.Writer, s ir.Stmt) error
	DecodeStmt(r io.Reader) (ir.Stmt, error)
}

func writeField(w io.Writer, tag byte, value []byte) error {
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(value)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(value)
	return err
}

func readField(r io.Reader) (tag byte, value []byte, err error) {
	var tagBuf [1]byte
	if _, err = io.ReadFull(r, tagBuf[:]); err != nil {
		return 0, nil, err
	}
	var lenBuf [4]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, errors.Wrap(err, "serialize: truncated field length")
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	value = make([]byte, n)
	if n > 0 {
		if _, err = io.ReadFull(r, value); err != nil {
			return 0, nil, errors.Wrap(err, "serialize: truncated field value")
		}
	}
	return tagBuf[0], value, nil
}

// Encode writes the whole procedure's block arena as a TLV stream: a
// 4-byte block count, then each block's fields in allocation order.
func Encode(w io.Writer, p *proc.Proc, codec StmtCodec) error {
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(p.Len()))
	if _, err := w.Write(countBuf[:]); err != nil {
		return errors.Wrap(err, "serialize: write block count")
	}

	for _, b := range p.Blocks() {
		if err := encodeBlock(w, b, codec); err != nil {
			return errors.Wrapf(err, "serialize: block %d", b.ID())
		}
	}
	return nil
}

func encodeBlock(w io.Writer, b *block.Block, codec StmtCodec) error {
	if err := writeField(w, bbType, []byte{byte(b.Kind())}); err != nil {
		return err
	}

	out := b.OutEdges()
	edgeBuf := make([]byte, 4*len(out))
	for i, e := range out {
		binary.BigEndian.PutUint32(edgeBuf[4*i:], uint32(e))
	}
	if err := writeField(w, bbOutEdges, edgeBuf); err != nil {
		return err
	}

	for _, rtl := range b.Instructions() {
		var buf bufWriter
		var addrBuf [8]byte
		binary.BigEndian.PutUint64(addrBuf[:], uint64(rtl.Addr))
		buf.Write(addrBuf[:])

		var countBuf [4]byte
		binary.BigEndian.PutUint32(countBuf[:], uint32(len(rtl.Stmts)))
		buf.Write(countBuf[:])

		for _, s := range rtl.Stmts {
			if err := codec.EncodeStmt(&buf, s); err != nil {
				return errors.Wrap(err, "serialize: encode statement")
			}
		}
		if err := writeField(w, bbRTL, buf.Bytes()); err != nil {
			return err
		}
	}

	return writeField(w, bbEnd, nil)
}

// bufWriter is a minimal growable byte buffer implementing io.Writer,
// avoiding a bytes.Buffer import purely for Write.
type bufWriter struct {
	data []byte
}

func (b *bufWriter) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *bufWriter) Bytes() []byte { return b.data }

// LinkTable records the raw block-index out-edges read for each decoded
// block, since the blocks they reference may not exist yet at decode time.
// Link resolves these into real edges in a second pass.
type LinkTable struct {
	outEdges map[block.ID][]int32
}

// Decode reads a TLV stream written by Encode into a fresh proc.Proc, and
// returns a LinkTable recording each block's not-yet-resolved out-edge
// indices. The caller must call Link(p, table) before the procedure's
// edges are usable. Entry is left unset (block.NoID); the caller who knows
// which index is the entry point should set it. An unrecognised field tag
// is skipped by its encoded length and logged, never fatal, per §7.
func Decode(r io.Reader, codec StmtCodec, log *diag.Log) (*proc.Proc, *LinkTable, error) {
	p := proc.New("")
	table := &LinkTable{outEdges: make(map[block.ID][]int32)}

	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, nil, errors.Wrap(err, "serialize: read block count")
	}
	n := binary.BigEndian.Uint32(countBuf[:])

	for i := uint32(0); i < n; i++ {
		id := p.NewBlock(block.KindInvalid)
		if err := decodeBlock(r, p, id, codec, table, log); err != nil {
			return nil, nil, errors.Wrapf(err, "serialize: block %d", id)
		}
	}

	return p, table, nil
}

func decodeBlock(r io.Reader, p *proc.Proc, id block.ID, codec StmtCodec, table *LinkTable, log *diag.Log) error {
	var rtls []ir.StmtList
	for {
		tag, value, err := readField(r)
		if err != nil {
			return err
		}
		switch tag {
		case bbType:
			if len(value) != 1 {
				return errors.New("serialize: malformed BB_TYPE field")
			}
			p.Block(id).UpdateKind(block.Kind(value[0]))
		case bbOutEdges:
			if len(value)%4 != 0 {
				return errors.New("serialize: malformed BB_OUTEDGES field")
			}
			edges := make([]int32, len(value)/4)
			for i := range edges {
				edges[i] = int32(binary.BigEndian.Uint32(value[4*i:]))
			}
			table.outEdges[id] = edges
		case bbRTL:
			rtl, err := decodeRTL(value, codec)
			if err != nil {
				return err
			}
			rtls = append(rtls, rtl)
		case bbEnd:
			// A block persisted with no RTLs (e.g. an empty entry or label
			// block) is restored as-is rather than rejected.
			if len(rtls) == 0 {
				return nil
			}
			if err := p.Block(id).SetInstructions(rtls); err != nil {
				return err
			}
			return nil
		default:
			log.Warn(-1, "serialize: skipping unknown field tag %d (%d bytes) in block %d", tag, len(value), id)
		}
	}
}

func decodeRTL(value []byte, codec StmtCodec) (ir.StmtList, error) {
	if len(value) < 12 {
		return ir.StmtList{}, errors.New("serialize: truncated BB_RTL field")
	}
	addr := ir.Addr(binary.BigEndian.Uint64(value[:8]))
	count := binary.BigEndian.Uint32(value[8:12])

	r := &bufReader{data: value[12:]}
	stmts := make([]ir.Stmt, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := codec.DecodeStmt(r)
		if err != nil {
			return ir.StmtList{}, errors.Wrap(err, "serialize: decode statement")
		}
		stmts = append(stmts, s)
	}
	return ir.StmtList{Addr: addr, Stmts: stmts}, nil
}

// bufReader is a minimal io.Reader over an in-memory slice, tracking how
// much a StmtCodec consumed so sequential DecodeStmt calls continue where
// the last one left off.
type bufReader struct {
	data []byte
	pos  int
}

func (b *bufReader) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

// Link resolves every block's raw out-edge indices recorded in table into
// real edges on p, completing the two-pass restore described in §6.4.
func Link(p *proc.Proc, table *LinkTable) {
	for id, edges := range table.outEdges {
		for _, e := range edges {
			p.Connect(id, block.ID(e))
		}
	}
}

// EncodeProgram writes a sequence of procedures one after another: each is
// preceded by its name (length-prefixed) and entry block index, then its
// TLV block stream as Encode produces. This is the format the CLI's
// "structure" and "dump" subcommands read; serialize itself knows nothing of
// structure.Program (importing it would invert the dependency the wiring
// package already has on serialize's sibling packages), so callers pass
// plain *proc.Proc slices.
func EncodeProgram(w io.Writer, procs []*proc.Proc, codec StmtCodec) error {
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(procs)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return errors.Wrap(err, "serialize: write procedure count")
	}
	for _, p := range procs {
		if err := writeString(w, p.Name); err != nil {
			return err
		}
		var entryBuf [4]byte
		binary.BigEndian.PutUint32(entryBuf[:], uint32(p.Entry))
		if _, err := w.Write(entryBuf[:]); err != nil {
			return err
		}
		if err := Encode(w, p, codec); err != nil {
			return errors.Wrapf(err, "serialize: procedure %q", p.Name)
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
	}
	return string(buf), nil
}

// DecodeProgram reads a stream written by EncodeProgram, decoding every
// procedure and setting its Entry from the persisted index. Each
// procedure's LinkTable must still be resolved with Link before its edges
// are usable; DecodeProgram does this automatically since, unlike a single
// Decode call, it owns every procedure's full lifetime here.
func DecodeProgram(r io.Reader, codec StmtCodec, log *diag.Log) ([]*proc.Proc, error) {
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, errors.Wrap(err, "serialize: read procedure count")
	}
	n := binary.BigEndian.Uint32(countBuf[:])

	procs := make([]*proc.Proc, 0, n)
	for i := uint32(0); i < n; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, errors.Wrap(err, "serialize: read procedure name")
		}
		var entryBuf [4]byte
		if _, err := io.ReadFull(r, entryBuf[:]); err != nil {
			return nil, errors.Wrap(err, "serialize: read procedure entry")
		}

		p, table, err := Decode(r, codec, log)
		if err != nil {
			return nil, errors.Wrapf(err, "serialize: procedure %q", name)
		}
		p.Name = name
		p.Entry = block.ID(int32(binary.BigEndian.Uint32(entryBuf[:])))
		Link(p, table)

		procs = append(procs, p)
	}
	return procs, nil
}

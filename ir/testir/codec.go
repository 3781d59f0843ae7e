package testir

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/boomslang/structurer/ir"
	"github.com/boomslang/structurer/serialize"
)

// Codec implements serialize.StmtCodec for this package's concrete Stmt/
// Expr types. It exists so the CLI and round-trip tests have a working
// statement encoding to exercise the TLV persistence format against; a
// real decoder would supply its own codec for its own statement
// representation, per §6.1's "statement layer is out of scope" boundary.
var Codec serialize.StmtCodec = codec{}

type codec struct{}

// tags, local to this file's wire format.
const (
	tAssign = 1
	tBranch = 2
	tCall   = 3
	tCase   = 4
	tReturn = 5
	tPhi    = 6

	eConst = 1
	eRef   = 2
	eBin   = 3
	eUn    = 4
	eNil   = 0
)

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeString(w io.Writer, s string) error {
	if err := writeU64(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	return buf[0], err
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readU64(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func encodeExpr(w io.Writer, e ir.Expr) error {
	switch v := e.(type) {
	case nil:
		return writeByte(w, eNil)
	case Const:
		if err := writeByte(w, eConst); err != nil {
			return err
		}
		return writeU64(w, uint64(int64(v)))
	case Ref:
		if err := writeByte(w, eRef); err != nil {
			return err
		}
		if err := writeString(w, v.Name); err != nil {
			return err
		}
		if v.Index == nil {
			return writeByte(w, 0)
		}
		if err := writeByte(w, 1); err != nil {
			return err
		}
		return encodeExpr(w, v.Index)
	case BinExpr:
		if err := writeByte(w, eBin); err != nil {
			return err
		}
		if err := writeString(w, string(v.Op)); err != nil {
			return err
		}
		if err := encodeExpr(w, v.X); err != nil {
			return err
		}
		return encodeExpr(w, v.Y)
	case UnExpr:
		if err := writeByte(w, eUn); err != nil {
			return err
		}
		if err := writeString(w, v.Op); err != nil {
			return err
		}
		return encodeExpr(w, v.X)
	default:
		return fmt.Errorf("testir: codec cannot encode expression type %T", e)
	}
}

func decodeExpr(r io.Reader) (ir.Expr, error) {
	tag, err := readByte(r)
	if err != nil {
		return nil, err
	}
	switch tag {
	case eNil:
		return nil, nil
	case eConst:
		v, err := readU64(r)
		if err != nil {
			return nil, err
		}
		return Const(int64(v)), nil
	case eRef:
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		has, err := readByte(r)
		if err != nil {
			return nil, err
		}
		if has == 0 {
			return Ref{Name: name}, nil
		}
		idx, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		return Ref{Name: name, Index: idx}, nil
	case eBin:
		op, err := readString(r)
		if err != nil {
			return nil, err
		}
		x, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		y, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		return BinExpr{Op: Op(op), X: x, Y: y}, nil
	case eUn:
		op, err := readString(r)
		if err != nil {
			return nil, err
		}
		x, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		return UnExpr{Op: op, X: x}, nil
	default:
		return nil, fmt.Errorf("testir: codec cannot decode expression tag %d", tag)
	}
}

func (codec) EncodeStmt(w io.Writer, s ir.Stmt) error {
	switch v := s.(type) {
	case *AssignStmt:
		if err := writeByte(w, tAssign); err != nil {
			return err
		}
		if err := encodeExpr(w, v.LHS); err != nil {
			return err
		}
		return encodeExpr(w, v.RHS)
	case *BranchStmt:
		if err := writeByte(w, tBranch); err != nil {
			return err
		}
		if err := writeByte(w, byte(v.BK)); err != nil {
			return err
		}
		return encodeExpr(w, v.Cond)
	case *CallStmt:
		if err := writeByte(w, tCall); err != nil {
			return err
		}
		if err := writeU64(w, uint64(v.Dest)); err != nil {
			return err
		}
		unknown := byte(0)
		if v.DestUnknown {
			unknown = 1
		}
		if err := writeByte(w, unknown); err != nil {
			return err
		}
		if err := writeU64(w, uint64(len(v.Args))); err != nil {
			return err
		}
		for _, a := range v.Args {
			if err := encodeExpr(w, a); err != nil {
				return err
			}
		}
		return encodeExpr(w, v.Result)
	case *CaseStmt:
		if err := writeByte(w, tCase); err != nil {
			return err
		}
		if err := writeU64(w, uint64(int64(v.Info.Lower))); err != nil {
			return err
		}
		if err := writeU64(w, uint64(int64(v.Info.Upper))); err != nil {
			return err
		}
		if err := writeString(w, v.Info.Form); err != nil {
			return err
		}
		return encodeExpr(w, v.Info.SwitchVar)
	case *ReturnStmt:
		if err := writeByte(w, tReturn); err != nil {
			return err
		}
		return encodeExpr(w, v.Value)
	case *PhiStmt:
		if err := writeByte(w, tPhi); err != nil {
			return err
		}
		if err := encodeExpr(w, v.LHS); err != nil {
			return err
		}
		if err := writeU64(w, uint64(len(v.Sources))); err != nil {
			return err
		}
		for _, s := range v.Sources {
			if err := encodeExpr(w, s); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("testir: codec cannot encode statement type %T", s)
	}
}

func (codec) DecodeStmt(r io.Reader) (ir.Stmt, error) {
	tag, err := readByte(r)
	if err != nil {
		return nil, err
	}
	switch tag {
	case tAssign:
		lhs, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		return &AssignStmt{LHS: lhs, RHS: rhs}, nil
	case tBranch:
		bk, err := readByte(r)
		if err != nil {
			return nil, err
		}
		cond, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		return &BranchStmt{Cond: cond, BK: ir.BranchKind(bk)}, nil
	case tCall:
		dest, err := readU64(r)
		if err != nil {
			return nil, err
		}
		unknown, err := readByte(r)
		if err != nil {
			return nil, err
		}
		nArgs, err := readU64(r)
		if err != nil {
			return nil, err
		}
		args := make([]ir.Expr, nArgs)
		for i := range args {
			args[i], err = decodeExpr(r)
			if err != nil {
				return nil, err
			}
		}
		result, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		return &CallStmt{Dest: ir.Addr(dest), DestUnknown: unknown != 0, Args: args, Result: result}, nil
	case tCase:
		lower, err := readU64(r)
		if err != nil {
			return nil, err
		}
		upper, err := readU64(r)
		if err != nil {
			return nil, err
		}
		form, err := readString(r)
		if err != nil {
			return nil, err
		}
		switchVar, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		return &CaseStmt{Info: ir.SwitchInfo{SwitchVar: switchVar, Lower: int(int64(lower)), Upper: int(int64(upper)), Form: form}}, nil
	case tReturn:
		val, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{Value: val}, nil
	case tPhi:
		lhs, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		n, err := readU64(r)
		if err != nil {
			return nil, err
		}
		sources := make([]ir.Expr, n)
		for i := range sources {
			sources[i], err = decodeExpr(r)
			if err != nil {
				return nil, err
			}
		}
		return &PhiStmt{LHS: lhs, Sources: sources}, nil
	default:
		return nil, fmt.Errorf("testir: codec cannot decode statement tag %d", tag)
	}
}

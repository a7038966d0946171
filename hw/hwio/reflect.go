package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type regInfo struct {
	offset uint32
	regPtr any
}

type tagInfo struct {
	hasOffset bool
	offset    uint32
	bank      int
	size      int
	vsize     int
	reset     uint64
	rwmask    uint64
	hasRWMask bool
	flags     RWFlags
	rcb, wcb  string
	pcb       string
}

func parseUint(key, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, s, err)
	}
	return v, nil
}

// parseTag parses an hwio struct tag. Callbacks given without a name default
// to Read<NAME>, Write<NAME> and Peek<NAME>, NAME being the uppercased field
// name.
func parseTag(field, tag string) (tagInfo, error) {
	var ti tagInfo
	for _, opt := range strings.Split(tag, ",") {
		key, val, hasVal := strings.Cut(strings.TrimSpace(opt), "=")
		var err error
		var v uint64
		switch key {
		case "":
		case "offset":
			v, err = parseUint(key, val)
			ti.offset, ti.hasOffset = uint32(v), true
		case "bank":
			v, err = parseUint(key, val)
			ti.bank = int(v)
		case "size":
			v, err = parseUint(key, val)
			ti.size = int(v)
		case "vsize":
			v, err = parseUint(key, val)
			ti.vsize = int(v)
		case "reset":
			ti.reset, err = parseUint(key, val)
		case "rwmask":
			ti.rwmask, err = parseUint(key, val)
			ti.hasRWMask = true
		case "readonly":
			ti.flags |= ReadOnlyFlag
		case "writeonly":
			ti.flags |= WriteOnlyFlag
		case "rcb":
			ti.rcb = "Read" + strings.ToUpper(field)
			if hasVal {
				ti.rcb = val
			}
		case "wcb":
			ti.wcb = "Write" + strings.ToUpper(field)
			if hasVal {
				ti.wcb = val
			}
		case "pcb":
			ti.pcb = "Peek" + strings.ToUpper(field)
			if hasVal {
				ti.pcb = val
			}
		default:
			err = fmt.Errorf("unknown option %q", key)
		}
		if err != nil {
			return ti, fmt.Errorf("field %s: %w", field, err)
		}
	}
	return ti, nil
}

func method[F any](obj reflect.Value, name string) (F, error) {
	var zero F
	m := obj.MethodByName(name)
	if !m.IsValid() {
		return zero, fmt.Errorf("missing method %s on %s", name, obj.Type())
	}
	f, ok := m.Interface().(F)
	if !ok {
		return zero, fmt.Errorf("method %s has signature %s, want %T", name, m.Type(), zero)
	}
	return f, nil
}

func structValue(data any) (reflect.Value, error) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("hwio: want pointer to struct, got %T", data)
	}
	return v, nil
}

// InitRegs initializes all the registers and memory areas contained in the
// structure pointed by data, from their hwio struct tags.
func InitRegs(data any) error {
	obj, err := structValue(data)
	if err != nil {
		return err
	}

	sv := obj.Elem()
	st := sv.Type()
	for i := range st.NumField() {
		sf := st.Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		ti, err := parseTag(sf.Name, tag)
		if err != nil {
			return err
		}

		switch r := sv.Field(i).Addr().Interface().(type) {
		case *Reg16:
			r.Name = sf.Name
			r.Value = uint16(ti.reset)
			r.Flags = ti.flags
			if ti.hasRWMask {
				r.RoMask = ^uint16(ti.rwmask)
			}
			if ti.rcb != "" {
				if r.ReadCb, err = method[func(uint16) uint16](obj, ti.rcb); err != nil {
					return err
				}
			}
			if ti.pcb != "" {
				if r.PeekCb, err = method[func(uint16) uint16](obj, ti.pcb); err != nil {
					return err
				}
			}
			if ti.wcb != "" {
				if r.WriteCb, err = method[func(uint16, uint16)](obj, ti.wcb); err != nil {
					return err
				}
			}
		case *Reg32:
			r.Name = sf.Name
			r.Value = uint32(ti.reset)
			r.Flags = ti.flags
			if ti.hasRWMask {
				r.RoMask = ^uint32(ti.rwmask)
			}
			if ti.rcb != "" {
				if r.ReadCb, err = method[func(uint32) uint32](obj, ti.rcb); err != nil {
					return err
				}
			}
			if ti.pcb != "" {
				if r.PeekCb, err = method[func(uint32) uint32](obj, ti.pcb); err != nil {
					return err
				}
			}
			if ti.wcb != "" {
				if r.WriteCb, err = method[func(uint32, uint32)](obj, ti.wcb); err != nil {
					return err
				}
			}
		case *Mem:
			if ti.size == 0 {
				return fmt.Errorf("field %s: memory area without size", sf.Name)
			}
			r.Name = sf.Name
			r.Data = make([]byte, ti.size)
			r.VSize = ti.size
			if ti.vsize != 0 {
				r.VSize = ti.vsize
			}
		default:
			return fmt.Errorf("field %s: unsupported type %s", sf.Name, sf.Type)
		}
	}
	return nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

func bankGetRegs(data any, bankNum int) ([]regInfo, error) {
	obj, err := structValue(data)
	if err != nil {
		return nil, err
	}

	var regs []regInfo
	sv := obj.Elem()
	st := sv.Type()
	for i := range st.NumField() {
		sf := st.Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		ti, err := parseTag(sf.Name, tag)
		if err != nil {
			return nil, err
		}
		if !ti.hasOffset || ti.bank != bankNum {
			continue
		}
		regs = append(regs, regInfo{
			offset: ti.offset,
			regPtr: sv.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}

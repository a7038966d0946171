package log

import (
	"fmt"
	"image"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level logrus.Level

const (
	PanicLevel = Level(logrus.PanicLevel)
	FatalLevel = Level(logrus.FatalLevel)
	ErrorLevel = Level(logrus.ErrorLevel)
	WarnLevel  = Level(logrus.WarnLevel)
	InfoLevel  = Level(logrus.InfoLevel)
	DebugLevel = Level(logrus.DebugLevel)
)

const maxZFields = 16

// EntryZ is a log entry built field by field without allocations. A nil
// *EntryZ is valid and silently discards everything, that's what disabled
// modules return.
type EntryZ struct {
	mod Module
	lvl Level
	msg string

	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func NewEntryZ() *EntryZ {
	z := entryPool.Get().(*EntryZ)
	z.zfidx = 0
	return z
}

func (z *EntryZ) field(typ FieldType, key string) *ZField {
	if z.zfidx == maxZFields {
		return nil
	}
	f := &z.zfbuf[z.zfidx]
	z.zfidx++
	*f = ZField{Type: typ, Key: key}
	return f
}

func (z *EntryZ) String(key, val string) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeString, key); f != nil {
			f.String = val
		}
	}
	return z
}

func (z *EntryZ) Bool(key string, val bool) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeBool, key); f != nil {
			f.Boolean = val
		}
	}
	return z
}

func (z *EntryZ) integer(typ FieldType, key string, val uint64) *EntryZ {
	if z != nil {
		if f := z.field(typ, key); f != nil {
			f.Integer = val
		}
	}
	return z
}

func (z *EntryZ) Hex8(key string, val uint8) *EntryZ   { return z.integer(FieldTypeHex8, key, uint64(val)) }
func (z *EntryZ) Hex16(key string, val uint16) *EntryZ { return z.integer(FieldTypeHex16, key, uint64(val)) }
func (z *EntryZ) Hex32(key string, val uint32) *EntryZ { return z.integer(FieldTypeHex32, key, uint64(val)) }
func (z *EntryZ) Int(key string, val int) *EntryZ      { return z.integer(FieldTypeInt, key, uint64(val)) }
func (z *EntryZ) Int64(key string, val int64) *EntryZ  { return z.integer(FieldTypeInt, key, uint64(val)) }
func (z *EntryZ) Uint(key string, val uint) *EntryZ    { return z.integer(FieldTypeUint, key, uint64(val)) }
func (z *EntryZ) Uint64(key string, val uint64) *EntryZ {
	return z.integer(FieldTypeUint, key, val)
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeError, key); f != nil {
			f.Error = err
		}
	}
	return z
}

func (z *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeDuration, key); f != nil {
			f.Duration = d
		}
	}
	return z
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeStringer, key); f != nil {
			f.Interface = s
		}
	}
	return z
}

// Point logs a position, in tiles or pixels.
func (z *EntryZ) Point(key string, p image.Point) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypePoint, key); f != nil {
			f.Point = p
		}
	}
	return z
}

func (z *EntryZ) Blob(key string, buf []byte) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeBlob, key); f != nil {
			f.Blob = buf
		}
	}
	return z
}

// End emits the entry and releases it. The entry must not be used afterwards.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = z.mod.String()
	z.appendTo(fields)
	contextFields(fields)

	entry := logrus.StandardLogger().WithFields(fields)
	switch z.lvl {
	case DebugLevel:
		entry.Debug(z.msg)
	case InfoLevel:
		entry.Info(z.msg)
	case WarnLevel:
		entry.Warn(z.msg)
	case ErrorLevel:
		entry.Error(z.msg)
	case FatalLevel:
		entry.Fatal(z.msg)
	case PanicLevel:
		entryPool.Put(z)
		entry.Panic(z.msg)
	}
	entryPool.Put(z)
}

// A Context adds fields to every log entry, for example the current frame
// and scanline of the console.
type Context interface {
	AddLogContext(z *EntryZ)
}

var (
	ctxmu    sync.Mutex
	contexts []Context
)

func AddContext(c Context) {
	ctxmu.Lock()
	contexts = append(contexts, c)
	ctxmu.Unlock()
}

func RemoveContext(c Context) {
	ctxmu.Lock()
	defer ctxmu.Unlock()
	for i := range contexts {
		if contexts[i] == c {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}

func (z *EntryZ) appendTo(fields logrus.Fields) {
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
}

// contextFields adds the fields of all registered contexts.
func contextFields(fields logrus.Fields) {
	ctxmu.Lock()
	defer ctxmu.Unlock()

	var z EntryZ
	for _, c := range contexts {
		c.AddLogContext(&z)
	}
	z.appendTo(fields)
}

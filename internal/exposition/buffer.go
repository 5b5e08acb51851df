package exposition

import "bytes"

// Label is a single name="value" pair. Values are written as-is; callers
// must not pass values containing quotes, backslashes or newlines.
type Label struct {
	Name  string
	Value string
}

// Buffer accumulates rendered metric lines for one collection cycle. It is
// append-only and not safe for concurrent use; every cycle owns its own.
type Buffer struct {
	buf   bytes.Buffer
	lines int
}

func NewBuffer() *Buffer {
	b := &Buffer{}
	b.buf.Grow(2048)
	return b
}

// Append writes `name{l1="v1",l2="v2"} value\n`.
func (b *Buffer) Append(name string, labels []Label, value string) {
	b.buf.WriteString(name)
	b.buf.WriteByte('{')
	for i, label := range labels {
		if i > 0 {
			b.buf.WriteByte(',')
		}
		b.buf.WriteString(label.Name)
		b.buf.WriteString(`="`)
		b.buf.WriteString(label.Value)
		b.buf.WriteByte('"')
	}
	b.buf.WriteString("} ")
	b.buf.WriteString(value)
	b.buf.WriteByte('\n')
	b.lines++
}

// AppendBuffer moves every line of other to the end of b.
func (b *Buffer) AppendBuffer(other *Buffer) {
	if other == nil {
		return
	}
	b.buf.Write(other.buf.Bytes())
	b.lines += other.lines
}

func (b *Buffer) Lines() int {
	return b.lines
}

func (b *Buffer) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *Buffer) String() string {
	return b.buf.String()
}

package fields

// Field is a D component field stored structure-of-arrays: one Store per
// component. The communication routines iterate components, so they work
// identically for plain and cyclic backed fields.
type Field[T any] struct {
	comps []Store[T]
}

// NewField builds a field of dim plain Array components of the given size
func NewField[T any](dim, size int) *Field[T] {
	f := &Field[T]{comps: make([]Store[T], dim)}
	for i := range f.comps {
		f.comps[i] = NewArray[T](size)
	}
	return f
}

// NewFieldInit builds a plain field with every component filled with init
func NewFieldInit[T any](dim, size int, init T) *Field[T] {
	f := NewField[T](dim, size)
	f.Init(init)
	return f
}

// NewCyclicField builds a field of dim CyclicArray components, one per
// streamed direction
func NewCyclicField[T any](dim, size int) *Field[T] {
	f := &Field[T]{comps: make([]Store[T], dim)}
	for i := range f.comps {
		f.comps[i] = NewCyclicArray[T](size)
	}
	return f
}

func (f *Field[T]) Dim() int { return len(f.comps) }

func (f *Field[T]) Comp(i int) Store[T] { return f.comps[i] }

// Cyclic returns component i as a CyclicArray; panics when the field is not
// cyclic backed
func (f *Field[T]) Cyclic(i int) *CyclicArray[T] {
	return f.comps[i].(*CyclicArray[T])
}

func (f *Field[T]) Init(v T) {
	for _, c := range f.comps {
		c.Fill(v)
	}
}

func (f *Field[T]) Resize(n int) {
	for _, c := range f.comps {
		c.Resize(n)
	}
}

// Get reads component dir at local cell id
func (f *Field[T]) Get(id int, dir int) T { return f.comps[dir].Get(id) }

// Set writes component dir at local cell id
func (f *Field[T]) Set(id int, dir int, v T) { f.comps[dir].Set(id, v) }

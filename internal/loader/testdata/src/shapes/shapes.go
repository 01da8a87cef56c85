package shapes

import "io"

type Shape interface {
	Area() float64
}

type Named interface {
	Shape
	Name() string
}

type Base struct{}

func (Base) Area() float64 { return 0 }

type Square struct {
	Base
	Side float64
}

func (s *Square) Name() string { return "square" }

type Closer struct {
	io.Closer
}

type Loose struct{}

type Anything interface{}

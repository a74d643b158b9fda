package geometry_test

import (
	"fmt"

	"github.com/matzehuels/clubreport/pkg/geometry"
)

func ExampleGeometry_RowsThatFit() {
	g := geometry.Default()
	y := g.StartY + g.HeaderHeight
	fmt.Println(g.RowsThatFit(y))
	// Output: 38
}

func ExampleGeometry_XPositions() {
	fmt.Println(geometry.Default().XPositions(3))
	// Output: [40 220 400]
}

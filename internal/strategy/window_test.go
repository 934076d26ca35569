package strategy

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RollingWindowTestSuite struct {
	suite.Suite
}

func TestRollingWindowSuite(t *testing.T) {
	suite.Run(t, new(RollingWindowTestSuite))
}

func (suite *RollingWindowTestSuite) TestAppendBelowCapacity() {
	w := NewRollingWindow[int](3)
	w.Append(1)
	w.Append(2)

	suite.Equal(2, w.Len())
	suite.Equal(3, w.Cap())
	suite.Equal([]int{1, 2}, w.All())
}

func (suite *RollingWindowTestSuite) TestEvictsOldest() {
	w := NewRollingWindow[int](3)
	for i := 1; i <= 5; i++ {
		w.Append(i)
	}

	suite.Equal(3, w.Len())
	suite.Equal([]int{3, 4, 5}, w.All())
	suite.Equal([]int{4, 5}, w.Last(2))
	suite.Equal([]int{3, 4, 5}, w.Last(10))
	suite.Empty(w.Last(0))
}

func (suite *RollingWindowTestSuite) TestNonPositiveCapacity() {
	w := NewRollingWindow[string](0)
	w.Append("a")
	w.Append("b")

	suite.Equal(1, w.Cap())
	suite.Equal([]string{"b"}, w.All())
}

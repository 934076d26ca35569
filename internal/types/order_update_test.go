package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type OrderUpdateTestSuite struct {
	suite.Suite
}

func TestOrderUpdateSuite(t *testing.T) {
	suite.Run(t, new(OrderUpdateTestSuite))
}

func (suite *OrderUpdateTestSuite) TestSideAliases() {
	for _, key := range []string{"transactionType", "transaction_type", "buy_or_sell", "side"} {
		side, ok := OrderUpdate{key: "SELL"}.Side()
		suite.True(ok, key)
		suite.Equal(SideSell, side, key)
	}

	_, ok := OrderUpdate{"side": "X"}.Side()
	suite.False(ok)

	_, ok = OrderUpdate{"side": 1}.Side()
	suite.False(ok)

	_, ok = OrderUpdate{}.Side()
	suite.False(ok)
}

func (suite *OrderUpdateTestSuite) TestQuantityAliases() {
	suite.Equal(int64(7), OrderUpdate{"filledQty": 7}.Quantity())
	suite.Equal(int64(7), OrderUpdate{"filled_qty": "7"}.Quantity())
	suite.Equal(int64(7), OrderUpdate{"quantity": 7.0}.Quantity())
	suite.Equal(int64(7), OrderUpdate{"qty": json.Number("7")}.Quantity())
	suite.Equal(int64(0), OrderUpdate{"qty": "n/a"}.Quantity())
	suite.Equal(int64(0), OrderUpdate{}.Quantity())
}

func (suite *OrderUpdateTestSuite) TestPriceAndIdentity() {
	update := OrderUpdate{
		"avgprc":        "101.5",
		"tradingsymbol": "INFY-EQ",
		"norenordno":    "24010100001",
		"remarks":       "entry strategy=momentum",
	}

	price, ok := update.Price()
	suite.True(ok)
	suite.Equal(101.5, price)
	suite.Equal("INFY-EQ", update.Symbol())
	suite.Equal("24010100001", update.OrderID())
	suite.Equal("entry strategy=momentum", update.Remarks())

	_, ok = OrderUpdate{}.Price()
	suite.False(ok)
	suite.Equal("x", OrderUpdate{"note": "x"}.Remarks())
}

func (suite *OrderUpdateTestSuite) TestMeta() {
	suite.Nil(OrderUpdate{}.Meta())
	suite.Equal("a", OrderUpdate{"meta": map[string]string{MetaStrategyName: "a"}}.Meta()[MetaStrategyName])
	suite.Equal("b", OrderUpdate{"meta": map[string]any{MetaStrategyName: "b", "n": 1}}.Meta()[MetaStrategyName])
}

func (suite *OrderUpdateTestSuite) TestNewFill() {
	fill := NewFill("ord-1", SideBuy, "NSE|22", 10, 99.5, "momentum")

	side, ok := fill.Side()
	suite.True(ok)
	suite.Equal(SideBuy, side)
	suite.Equal(int64(10), fill.Quantity())
	suite.Equal("NSE|22", fill.Symbol())
	suite.Equal("ord-1", fill.OrderID())
	suite.Equal("momentum", fill.Meta()[MetaStrategyName])

	suite.Nil(NewFill("ord-2", SideSell, "X", 1, 1, "").Meta())
}

package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type JsonSchemaTestSuite struct {
	suite.Suite
}

func TestJsonSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(JsonSchemaTestSuite))
}

type testConfig struct {
	ShortPeriod int    `yaml:"short" jsonschema:"title=Short Period,description=Fast moving average length,minimum=1,default=5"`
	LongPeriod  int    `yaml:"long" jsonschema:"title=Long Period,description=Slow moving average length,minimum=1,default=20"`
	Exchange    string `yaml:"exchange" jsonschema:"title=Exchange,default=NSE"`
}

func (suite *JsonSchemaTestSuite) TestToJSONSchemaUsesYamlNames() {
	out, err := ToJSONSchema(testConfig{})
	suite.NoError(err)

	var doc map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &doc))

	props, ok := doc["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(props, "short")
	suite.Contains(props, "long")
	suite.Contains(props, "exchange")

	short, ok := props["short"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("Fast moving average length", short["description"])
}

func (suite *JsonSchemaTestSuite) TestIndented() {
	out, err := ToIndentedJSONSchema(&testConfig{})
	suite.NoError(err)
	suite.Contains(out, "\n  ")
}

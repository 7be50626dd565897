package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

type seriesConfig struct {
	Symbol string `json:"symbol" jsonschema:"description=Provider symbol"`
	Column string `json:"column,omitempty"`
}

type groupConfig struct {
	Name   string         `json:"name"`
	Series []seriesConfig `json:"series"`
}

func (suite *UtilsTestSuite) parse(config any) map[string]any {
	schema, err := GetSchemaFromConfig(config)
	suite.Require().NoError(err)

	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &result))

	return result
}

func (suite *UtilsTestSuite) TestDefinitionsAreInlined() {
	result := suite.parse(groupConfig{})

	suite.Contains(result, "$schema")
	suite.NotContains(result, "$ref")
	suite.NotContains(result, "$defs")

	properties := result["properties"].(map[string]any)
	series := properties["series"].(map[string]any)
	items := series["items"].(map[string]any)
	suite.Contains(items["properties"], "symbol")
}

func (suite *UtilsTestSuite) TestOmitEmptyFieldsAreOptional() {
	result := suite.parse(seriesConfig{})

	suite.Equal([]any{"symbol"}, result["required"])
}

func (suite *UtilsTestSuite) TestDescriptionsAreKept() {
	result := suite.parse(seriesConfig{})

	symbol := result["properties"].(map[string]any)["symbol"].(map[string]any)
	suite.Equal("Provider symbol", symbol["description"])
}

func (suite *UtilsTestSuite) TestPointerMatchesValue() {
	fromValue, err := GetSchemaFromConfig(groupConfig{})
	suite.Require().NoError(err)

	fromPointer, err := GetSchemaFromConfig(&groupConfig{})
	suite.Require().NoError(err)

	suite.Equal(fromValue, fromPointer)
}

func (suite *UtilsTestSuite) TestOutputIsIndented() {
	schema, err := GetSchemaFromConfig(seriesConfig{})
	suite.Require().NoError(err)

	suite.Contains(schema, "\n  \"")
}

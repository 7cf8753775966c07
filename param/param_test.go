package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntParamBounds(t *testing.T) {
	p := NewIntParam("nSamples", "Number of samples", "", false, 1, 100000, true, true)

	v, err := p.WithValue(int64(10000))
	require.NoError(t, err)
	assert.Equal(t, Stored{Name: "nSamples", Value: int64(10000)}, v.Serialize())

	_, err = p.WithValue(int64(0))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "nSamples", verr.Name)
}

func TestFloatParamRejectsNaN(t *testing.T) {
	p := NewFloatParam("rate", "Rate", "", false, 0, 1, true, true, 0, false)
	_, err := p.WithValue(float64(0) / 0)
	require.Error(t, err)
}

func TestRangeParamStartGreaterThanEnd(t *testing.T) {
	p := NewRangeParam("window", "Window", "s", false, 0, 100, 1)
	_, err := p.WithValue("50-10")
	require.Error(t, err)
}

func TestRangeParamHyphenString(t *testing.T) {
	p := NewRangeParam("window", "Window", "s", false, 0, 100, 1)
	v, err := p.WithValue("10-50")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 50}, v.Serialize().Value)
}

func TestRangeParamTwoElementSlice(t *testing.T) {
	p := NewRangeParam("window", "Window", "s", false, 0, 100, 1)
	v, err := p.WithValue([]any{10.0, 50.0})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 50}, v.Serialize().Value)
}

func TestSelectParamRejectsUnknownOption(t *testing.T) {
	p := NewSelectParam("units", "Units", "", false, []string{"metric", "imperial"})
	_, err := p.WithValue("banana")
	require.Error(t, err)

	v, err := p.WithValue("metric")
	require.NoError(t, err)
	assert.Equal(t, "metric", v.Serialize().Value)
}

func TestBoolParamNonExistValueIsFalse(t *testing.T) {
	p := NewBoolParam("subscribe", "Subscribe", false)
	v, err := p.NonExistValue()
	require.NoError(t, err)
	assert.Equal(t, false, v.Serialize().Value)
}

func TestIntParamNonExistValueIsError(t *testing.T) {
	p := NewIntParam("nSamples", "Number of samples", "", false, 1, 100000, true, true)
	_, err := p.NonExistValue()
	require.Error(t, err)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	decl := NewIntParam("nSamples", "Number of samples", "", false, 1, 100000, true, true)
	v, err := decl.WithValue(int64(250))
	require.NoError(t, err)

	stored := v.Serialize()
	round, err := Deserialize(decl, stored)
	require.NoError(t, err)
	assert.Equal(t, stored, round.Serialize())
}

func TestAsTextIncludesUnits(t *testing.T) {
	p := NewFloatParam("temp", "Temperature", "C", false, -50, 50, true, true, 0, false)
	v, err := p.WithValue(21.5)
	require.NoError(t, err)
	assert.Equal(t, "Temperature: 21.5 C", v.AsText())
}

func TestAsHTMLHidesHiddenParam(t *testing.T) {
	p := NewStringParam("internalTag", "internal", "", true, 0)
	v, err := p.WithValue("x")
	require.NoError(t, err)
	assert.Empty(t, v.AsHTML())
}

func TestRangeParamAsHTMLEscapesDescription(t *testing.T) {
	p := NewRangeParam(`window`, `Window <script>alert(1)</script>`, "s", false, 0, 100, 1)
	v, err := p.WithValue("10-50")
	require.NoError(t, err)
	assert.NotContains(t, v.AsHTML(), "<script>")
	assert.Contains(t, v.AsHTML(), "&lt;script&gt;")
}

func TestBoolParamAsHTMLEscapesDescription(t *testing.T) {
	p := NewBoolParam("subscribe", `Subscribe <script>alert(1)</script>`, false)
	v, err := p.WithValue(true)
	require.NoError(t, err)
	assert.NotContains(t, v.AsHTML(), "<script>")
	assert.Contains(t, v.AsHTML(), "&lt;script&gt;")
}

func TestSelectParamAsHTMLEscapesDescriptionAndOptions(t *testing.T) {
	p := NewSelectParam("units", `Units <script>alert(1)</script>`, "", false, []string{`"><script>alert(2)</script>`})
	v, err := p.WithValue(`"><script>alert(2)</script>`)
	require.NoError(t, err)
	html := v.AsHTML()
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestAsLatexEscapesSpecialCharacters(t *testing.T) {
	p := NewStringParam("note", "A & B", "", false, 0)
	v, err := p.WithValue("50% off #1")
	require.NoError(t, err)
	assert.Contains(t, v.AsLatex(), `\&`)
	assert.Contains(t, v.AsLatex(), `\%`)
	assert.Contains(t, v.AsLatex(), `\#`)
}

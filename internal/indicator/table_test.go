package indicator

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerstats/internal/cache"
	"powerstats/internal/config"
	apperrors "powerstats/internal/errors"
	"powerstats/internal/shared/testutil"
)

const populationTSV = "indic_de,geo\\time\t2016 \t2015 \t2014 \n" +
	"JAN,ES\t46445828 \t46449565 \t46512199 b\n" +
	"JAN,PT\t10341330 p\t10374822 \t: \n" +
	"JAN,FR\t66759950 e\t:\t66165980 \n"

func writeTSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tps00001.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_TSV(t *testing.T) {
	table, err := Load(context.Background(), Population(writeTSV(t, populationTSV)), Options{})
	require.NoError(t, err)

	assert.Equal(t, PresetPopulation, table.Name())
	assert.Equal(t, []int{2014, 2015, 2016}, table.Years())
	assert.Equal(t, []string{"ES", "FR", "PT"}, table.Countries())

	es, err := table.SelectCountryData("ES")
	require.NoError(t, err)
	assert.Equal(t, []int{2014, 2015, 2016}, es.Years)
	assert.Equal(t, []float64{46512199, 46449565, 46445828}, es.Values, "footnote letters stripped")

	pt, err := table.SelectCountryData("PT")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(pt.Values[0]), "':' is missing")
	assert.Equal(t, 10341330.0, pt.Values[2])

	v, ok := table.Value("FR", 2015)
	assert.True(t, ok)
	assert.True(t, math.IsNaN(v))
	_, ok = table.Value("FR", 2020)
	assert.False(t, ok)
}

func TestLoad_XLSX(t *testing.T) {
	dir := t.TempDir()
	path := testutil.SaveWorkbook(t, filepath.Join(dir, "inflation_tec00118.xlsx"), "Data", [][]any{
		{"geo\\time", 2013, 2014, "notes"},
		{"ES", 1.5, -0.2},
		{"PT", 0.4, ":"},
	})

	table, err := Load(context.Background(), Inflation(path), Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{2013, 2014}, table.Years())

	m := table.SelectCountriesData([]string{"PT", "IT"})
	assert.Equal(t, []string{"PT", "IT"}, m.Countries)
	assert.Equal(t, 0.4, m.Values[0][0])
	assert.True(t, math.IsNaN(m.Values[1][0]))
	assert.True(t, math.IsNaN(m.Values[0][1]), "unknown country column is NaN")

	all := table.SelectCountriesData(nil)
	assert.Equal(t, []string{"ES", "PT"}, all.Countries)
	v, ok := all.Value(2014, "ES")
	require.True(t, ok)
	assert.Equal(t, -0.2, v)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), GDP(filepath.Join(t.TempDir(), "absent")), Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileRead))

	_, err = Load(context.Background(), GDP(writeTSV(t, "unit,geo\\time\tnotes\nX,ES\t1\n")), Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchemaMismatch))

	_, err = Load(context.Background(), GDP(writeTSV(t, "")), Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchemaMismatch))
}

func TestSelectCountryData_Unknown(t *testing.T) {
	table, err := Load(context.Background(), Population(writeTSV(t, populationTSV)), Options{})
	require.NoError(t, err)

	_, err = table.SelectCountryData("IT")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidCountry))

	es, err := table.SelectCountryData("ES")
	require.NoError(t, err)
	es.Values[0] = 0
	again, _ := table.SelectCountryData("ES")
	assert.Equal(t, 46512199.0, again.Values[0])
}

func TestLoad_Snapshot(t *testing.T) {
	src := Unemployment(writeTSV(t, populationTSV))
	src.Name = "unemployment"
	store, err := NewStore(src, cache.Options{Policy: config.CachePolicyContent})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(src.Path), "unemployment.parquet"), store.Path())

	built, err := Load(context.Background(), src, Options{Cache: store})
	require.NoError(t, err)
	assert.FileExists(t, store.Path())

	restored, err := Load(context.Background(), src, Options{Cache: store})
	require.NoError(t, err)
	assert.Equal(t, built.Years(), restored.Years())
	assert.Equal(t, built.Countries(), restored.Countries())
	for _, c := range built.Countries() {
		want, _ := built.SelectCountryData(c)
		got, _ := restored.SelectCountryData(c)
		require.Len(t, got.Values, len(want.Values))
		for i := range want.Values {
			if math.IsNaN(want.Values[i]) {
				assert.True(t, math.IsNaN(got.Values[i]))
				continue
			}
			assert.Equal(t, want.Values[i], got.Values[i])
		}
	}
}

func TestFromConfig(t *testing.T) {
	src, err := FromConfig(config.IndicatorConfig{Name: "pop", Preset: PresetPopulation, Path: "/data/tps00001"})
	require.NoError(t, err)
	assert.Equal(t, "pop", src.Name)
	assert.Equal(t, FormatTSV, src.Format)
	assert.Equal(t, 1, src.CodeField)
	assert.Equal(t, "bep", src.FootnoteMarkers)

	src, err = FromConfig(config.IndicatorConfig{Name: "cpi", Path: "/data/cpi.xlsx", Sheet: "Data"})
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, src.Format)
	assert.Equal(t, "Data", src.Sheet)
	assert.Equal(t, 0, src.CodeField)

	_, err = FromConfig(config.IndicatorConfig{Name: "x", Preset: "wages", Path: "/data/x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeUnsupportedMode))

	_, err = FromConfig(config.IndicatorConfig{Name: "x", Path: "/data/x", Format: "json"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeUnsupportedMode))
}

func TestCleaner(t *testing.T) {
	c := newCleaner(Source{FootnoteMarkers: "bep", MissingMarker: ":"})
	assert.Equal(t, 12.5, c.value(" 12.5 p"))
	assert.Equal(t, 3.0, c.value("3 b"))
	assert.True(t, math.IsNaN(c.value(": ")))
	assert.True(t, math.IsNaN(c.value(": c")))
	assert.True(t, math.IsNaN(c.value("")))

	plain := newCleaner(Source{})
	assert.True(t, math.IsNaN(plain.value("1.5 e")), "letters kept without markers")
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "ES", countryCode("PC_ACT,ES", 1))
	assert.Equal(t, "ES", countryCode("ES", 0))
	assert.Equal(t, "ES", countryCode(" ES ", 3))
}

package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildXLSX writes rows to a fresh workbook and returns its bytes.
func buildXLSX(t *testing.T, sheets map[string][][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRead_XLSX(t *testing.T) {
	data := buildXLSX(t, map[string][][]interface{}{
		"搜索词": {
			{"菜板 搜索词排行 2026-03"},
			{},
			{"排名", "搜索词", "搜索人气", "点击率", "支付转化率"},
			{1, "家用菜板", "5万 ~ 10万", "80.00%", "20% ~ 25%"},
			{2, "防霉抗菌砧板", "3万 ~ 6万", "90.00%", "25% ~ 30%"},
			{3, "", "1万 ~ 2万", "", ""},
			{4, "辅食板", "5000 ~ 1万", "85.00%", "20% ~ 25%"},
		},
	})

	kws, err := Read("export.xlsx", bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, kws, 3)

	assert.Equal(t, "家用菜板", kws[0].Text)
	assert.Equal(t, 1, kws[0].ID)
	assert.Equal(t, 1, kws[0].Rank)
	assert.Equal(t, int64(50000), kws[0].PopularityMin)
	assert.Equal(t, int64(100000), kws[0].PopularityMax)
	assert.Equal(t, "80.00%", kws[0].ClickRate)
	assert.Equal(t, "20% ~ 25%", kws[0].ConversionRate)

	assert.Equal(t, "辅食板", kws[2].Text)
	assert.Equal(t, 3, kws[2].ID, "ids are sequential over kept rows")
	assert.Equal(t, 4, kws[2].Rank, "rank comes from the sheet")
	assert.Equal(t, int64(5000), kws[2].PopularityMin)
}

func TestRead_XLSX_SkipsSheetsWithoutHeader(t *testing.T) {
	data := buildXLSX(t, map[string][][]interface{}{
		"说明": {{"本表由平台导出"}},
	})
	_, err := Read("export.xlsx", bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestRead_XLSX_Corrupt(t *testing.T) {
	_, err := Read("export.xlsx", strings.NewReader("not a zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open excel")
}

func TestRead_CSV(t *testing.T) {
	in := "\xef\xbb\xbfKeyword, Search  Popularity ,CTR,Conversion Rate\n" +
		"kitchen scissors,8万 ~ 15万,100.00%,30% ~ 35%\n" +
		"\"cutting board, bamboo\",12000,80.00%\n" +
		",,,\n"

	kws, err := Read("terms.CSV", strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, kws, 2)

	assert.Equal(t, "kitchen scissors", kws[0].Text)
	assert.Equal(t, int64(80000), kws[0].PopularityMin)
	assert.Equal(t, int64(150000), kws[0].PopularityMax)

	assert.Equal(t, "cutting board, bamboo", kws[1].Text)
	assert.Equal(t, 2, kws[1].Rank, "no rank column: row order")
	assert.Equal(t, int64(12000), kws[1].PopularityMin)
	assert.Equal(t, int64(12000), kws[1].PopularityMax)
	assert.Empty(t, kws[1].ConversionRate, "short rows leave missing cells empty")
}

func TestRead_CSV_NoHeader(t *testing.T) {
	_, err := Read("x.csv", strings.NewReader("a,b\n1,2\n"))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestRead_HeaderOnly(t *testing.T) {
	kws, err := Read("x.csv", strings.NewReader("搜索词,搜索人气\n"))
	require.NoError(t, err)
	assert.Empty(t, kws)
}

func TestRead_Unsupported(t *testing.T) {
	_, err := Read("terms.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported("terms.txt"))
	assert.True(t, Supported("TERMS.XLSX"))
	assert.True(t, Supported("a.csv"))
}

package keyword

import "github.com/corey/titlelab/internal/ports"

type sampleRow struct {
	rank       int
	text       string
	popularity string
	click      string
	conversion string
}

// sampleRows is a kitchenware search-term export, used when no spreadsheet
// has been imported.
var sampleRows = []sampleRow{
	{1, "厨房剪刀", "8万 ~ 15万", "100.00%", "30% ~ 35%"},
	{2, "剪刀厨房专用", "4万 ~ 8万", "96.00%", "35% ~ 40%"},
	{3, "厨房用剪刀", "2万 ~ 4万", "105.00%", "30% ~ 35%"},
	{4, "剪刀厨房", "2万 ~ 4万", "96.00%", "30% ~ 35%"},
	{5, "剪鸡鸭鹅骨头", "2万 ~ 4万", "113.00%", "25% ~ 30%"},
	{6, "厨房专用剪刀", "2万 ~ 4万", "105.00%", "35% ~ 40%"},
	{7, "剪刀高硬度锋利", "2万 ~ 4万", "84.00%", "30% ~ 35%"},
	{8, "不锈钢剪刀", "1万 ~ 2万", "91.00%", "25% ~ 30%"},
	{9, "厨房剪骨剪刀", "1万 ~ 2万", "109.00%", "25% ~ 30%"},
	{10, "瑞士力康", "1万 ~ 2万", "60.00%", "7.5% ~ 10%"},
	{11, "家用菜板", "5万 ~ 10万", "80.00%", "20% ~ 25%"},
	{12, "防霉抗菌砧板", "3万 ~ 6万", "90.00%", "25% ~ 30%"},
	{13, "切水果案板", "1万 ~ 2万", "95.00%", "30% ~ 35%"},
	{14, "辅食板", "5000 ~ 1万", "85.00%", "20% ~ 25%"},
	{15, "摩登主妇", "2万 ~ 5万", "110.00%", "15% ~ 20%"},
}

// Sample returns a fresh copy of the built-in keyword table.
func Sample() []ports.Keyword {
	out := make([]ports.Keyword, len(sampleRows))
	for i, r := range sampleRows {
		out[i] = New(r.rank, r.rank, r.text, r.popularity, r.click, r.conversion)
	}
	return out
}

// New builds a keyword row, deriving the numeric popularity bounds from the
// raw range text.
func New(id, rank int, text, popularity, click, conversion string) ports.Keyword {
	lo, hi := ParseRange(popularity)
	return ports.Keyword{
		ID:             id,
		Rank:           rank,
		Text:           text,
		PopularityRaw:  popularity,
		PopularityMin:  lo,
		PopularityMax:  hi,
		ClickRate:      click,
		ConversionRate: conversion,
	}
}

// Texts returns the keyword texts in dataset order.
func Texts(keywords []ports.Keyword) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		out = append(out, k.Text)
	}
	return out
}

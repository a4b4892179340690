// Package chart renders the dashboard's line charts as PNG images with
// go-chart: mortality rate per clinic with the hand-washing threshold marked,
// and births against deaths per clinic.
package chart

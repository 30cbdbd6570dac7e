package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func writePrices(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write prices: %v", err)
	}
	return path
}

func TestLoadPricesCSV(t *testing.T) {
	// Comma is the decimal separator in the exported dumps.
	path := writePrices(t, "2023-01-02;100,25;101,50\n2023-01-03;99,75\n")

	prices, err := LoadPricesCSV(path)
	if err != nil {
		t.Fatalf("LoadPricesCSV failed: %v", err)
	}

	want := []float64{100.25, 101.50, 99.75}
	if len(prices) != len(want) {
		t.Fatalf("expected %d prices, got %d", len(want), len(prices))
	}
	for i := range want {
		if prices[i] != want[i] {
			t.Errorf("price %d: expected %f, got %f", i, want[i], prices[i])
		}
	}
}

func TestLoadPricesCSVIgnoresNoise(t *testing.T) {
	path := writePrices(t, "header line\nfoo;12,34;bar\n\n")

	prices, err := LoadPricesCSV(path)
	if err != nil {
		t.Fatalf("LoadPricesCSV failed: %v", err)
	}
	if len(prices) != 1 || prices[0] != 12.34 {
		t.Errorf("expected [12.34], got %v", prices)
	}
}

func TestLoadPricesCSVEmpty(t *testing.T) {
	path := writePrices(t, "no numbers here\n")

	if _, err := LoadPricesCSV(path); err == nil {
		t.Error("expected an error for a file without prices")
	}
}

func TestLoadPricesCSVMissingFile(t *testing.T) {
	if _, err := LoadPricesCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

// bench - rdla/rdlb codec comparison
//
// Encodes synthetic scenes of growing size with both codecs and compares:
//   - Bytes on disk (text, binary, binary + zstd)
//   - Encode and decode time
//
// Output: CSV and markdown summary
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Neumenon/rdl2/internal/fixture"
	"github.com/Neumenon/rdl2/rdl"
	"github.com/Neumenon/rdl2/rdla"
	"github.com/Neumenon/rdl2/rdlb"
)

type CaseResult struct {
	Name            string
	Objects         int
	TextBytes       int
	BinaryBytes     int
	CompressedBytes int
	TextEncode      time.Duration
	TextDecode      time.Duration
	BinaryEncode    time.Duration
	BinaryDecode    time.Duration
}

func main() {
	sizes := flag.String("sizes", "10,100,1000,5000", "comma separated sphere counts")
	rounds := flag.Int("rounds", 5, "timing rounds per case (best is kept)")
	outDir := flag.String("out", ".", "directory for bench_results.csv and BENCH.md")
	flag.Parse()

	counts, err := parseSizes(*sizes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -sizes: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "RDL Codec Benchmark\n")
	fmt.Fprintf(os.Stderr, "===================\n")
	fmt.Fprintf(os.Stderr, "Cases: %d, rounds: %d\n\n", len(counts), *rounds)

	var results []CaseResult
	for _, n := range counts {
		r, err := runCase(n, max(*rounds, 1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip spheres=%d: %v\n", n, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "%-14s text=%d binary=%d zstd=%d\n", r.Name, r.TextBytes, r.BinaryBytes, r.CompressedBytes)
		results = append(results, r)
	}

	csvPath := *outDir + "/bench_results.csv"
	if f, err := os.Create(csvPath); err == nil {
		writeCSV(f, results)
		f.Close()
		fmt.Fprintf(os.Stderr, "CSV written to: %s\n", csvPath)
	}
	mdPath := *outDir + "/BENCH.md"
	if f, err := os.Create(mdPath); err == nil {
		writeMarkdown(f, results)
		f.Close()
		fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", mdPath)
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	for _, r := range results {
		fmt.Printf("%-14s binary %.1f%% of text, zstd %.1f%% of text\n",
			r.Name, pct(r.BinaryBytes, r.TextBytes), pct(r.CompressedBytes, r.TextBytes))
	}
}

func parseSizes(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad size %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func runCase(n, rounds int) (CaseResult, error) {
	sc, err := fixture.NewContext()
	if err != nil {
		return CaseResult{}, err
	}
	if err := fixture.Populate(sc, n); err != nil {
		return CaseResult{}, err
	}
	r := CaseResult{Name: fmt.Sprintf("spheres=%d", n), Objects: len(sc.SceneObjects())}

	var text string
	r.TextEncode, err = best(rounds, func() error {
		text, err = rdla.NewWriter(sc).String()
		return err
	})
	if err != nil {
		return r, err
	}
	r.TextBytes = len(text)
	r.TextDecode, err = best(rounds, func() error {
		target, err := fixture.NewContext()
		if err != nil {
			return err
		}
		_, err = rdla.NewReader(target).ReadString(text)
		return err
	})
	if err != nil {
		return r, err
	}

	var manifest, payload []byte
	r.BinaryEncode, err = best(rounds, func() error {
		manifest, payload, err = rdlb.NewWriter(sc).ToBytes()
		return err
	})
	if err != nil {
		return r, err
	}
	r.BinaryBytes = len(manifest) + len(payload)
	r.BinaryDecode, err = best(rounds, func() error {
		target, err := fixture.NewContext()
		if err != nil {
			return err
		}
		_, err = rdlb.NewReader(target).FromBytes(manifest, payload)
		return err
	})
	if err != nil {
		return r, err
	}

	cm, cp, err := rdlb.NewWriter(sc, rdlb.Compress(true)).ToBytes()
	if err != nil {
		return r, err
	}
	r.CompressedBytes = len(cm) + len(cp)
	return r, verify(sc, manifest, payload)
}

// verify decodes the binary form once more and checks it matches.
func verify(sc *rdl.SceneContext, manifest, payload []byte) error {
	target, err := fixture.NewContext()
	if err != nil {
		return err
	}
	if _, err := rdlb.NewReader(target).FromBytes(manifest, payload); err != nil {
		return err
	}
	if diff := fixture.Diff(sc, target); len(diff) > 0 {
		return fmt.Errorf("round trip differs: %s", diff[0])
	}
	return nil
}

func best(rounds int, fn func() error) (time.Duration, error) {
	var min time.Duration
	for i := 0; i < rounds; i++ {
		start := time.Now()
		if err := fn(); err != nil {
			return 0, err
		}
		if d := time.Since(start); i == 0 || d < min {
			min = d
		}
	}
	return min, nil
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,objects,text_bytes,binary_bytes,zstd_bytes,text_encode_us,text_decode_us,binary_encode_us,binary_decode_us")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name, r.Objects, r.TextBytes, r.BinaryBytes, r.CompressedBytes,
			r.TextEncode.Microseconds(), r.TextDecode.Microseconds(),
			r.BinaryEncode.Microseconds(), r.BinaryDecode.Microseconds())
	}
}

func writeMarkdown(w io.Writer, results []CaseResult) {
	fmt.Fprintf(w, "# RDL Codec Benchmark Results\n\n")
	fmt.Fprintf(w, "**Date:** %s  \n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(w, "**Cases:** %d  \n\n", len(results))

	fmt.Fprintf(w, "## Size\n\n")
	fmt.Fprintf(w, "| Case | Objects | rdla | rdlb | rdlb + zstd | rdlb / rdla |\n")
	fmt.Fprintf(w, "|------|---------|------|------|-------------|-------------|\n")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %d | %d | %d | %d | %.1f%% |\n",
			r.Name, r.Objects, r.TextBytes, r.BinaryBytes, r.CompressedBytes, pct(r.BinaryBytes, r.TextBytes))
	}

	fmt.Fprintf(w, "\n## Time (best of rounds)\n\n")
	fmt.Fprintf(w, "| Case | rdla encode | rdla decode | rdlb encode | rdlb decode |\n")
	fmt.Fprintf(w, "|------|-------------|-------------|-------------|-------------|\n")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			r.Name, r.TextEncode, r.TextDecode, r.BinaryEncode, r.BinaryDecode)
	}

	fmt.Fprintf(w, "\n## Methodology\n\n")
	fmt.Fprintf(w, "- **Scene:** `fixture.Populate` with n spheres plus one of every collection, a mesh, user data and a render output\n")
	fmt.Fprintf(w, "- **Defaults:** both writers skip attributes that hold their default\n")
	fmt.Fprintf(w, "- **Decode:** into a fresh context with the fixture classes registered\n")
}

// Package deflate implements a from-scratch zlib/DEFLATE encoder: parallel
// LZ77 match planning over fixed-size chunks, fixed-Huffman bitstream
// assembly, and a chunked Adler-32 checksum combined the same way gzip's
// own multi-threaded encoders do it. It exists because spec.md mandates a
// byte-for-byte deterministic compressed stream regardless of worker-pool
// size or host, a guarantee compress/flate's own internal chunking and
// match-finding heuristics do not make (and are not required to make,
// since nothing in its public API promises determinism across versions).
package deflate

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const (
	adlerBase = 65521

	lz77ChunkBytes   = 128 * 1024
	minMatch         = 3
	maxMatch         = 258
	maxDistance      = 32 * 1024
	maxChainSteps    = 64
	hashBits         = 15
	hashSize         = 1 << hashBits
	defaultAdlerSpan = 1 << 20
)

var lengthBase = [29]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131,
	163, 195, 227, 258,
}

var lengthExtraBits = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

var distBase = [30]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537,
	2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distExtraBits = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// adlerPartial is an Adler-32 running sum over one chunk, combinable with
// its neighbors without reprocessing the chunk's bytes.
type adlerPartial struct {
	a, b uint32
	n    int
}

func adlerIdentity() adlerPartial { return adlerPartial{a: 1} }

func adlerForBytes(data []byte) adlerPartial {
	var a, b uint32 = 1, 0
	for _, byt := range data {
		a += uint32(byt)
		if a >= adlerBase {
			a -= adlerBase
		}
		b = (b + a) % adlerBase
	}
	return adlerPartial{a: a, b: b, n: len(data)}
}

// combine merges two adjacent Adler-32 partials in the order they occur in
// the original byte stream, per the standard Adler-32 combine identity.
func (p adlerPartial) combine(q adlerPartial) adlerPartial {
	if p.n == 0 {
		return q
	}
	if q.n == 0 {
		return p
	}
	a := (p.a + q.a + adlerBase - 1) % adlerBase
	b := uint32((uint64(p.b) + uint64(q.b) + (uint64(q.n%adlerBase) * uint64(p.a+adlerBase-1))) % adlerBase)
	return adlerPartial{a: a, b: b, n: p.n + q.n}
}

func (p adlerPartial) value() uint32 { return (p.b << 16) | p.a }

func chunkRanges(total, size int) [][2]int {
	if total == 0 {
		return [][2]int{{0, 0}}
	}
	if size < 1 {
		size = 1
	}
	var out [][2]int
	for start := 0; start < total; {
		end := start + size
		if end > total {
			end = total
		}
		out = append(out, [2]int{start, end})
		start = end
	}
	return out
}

// adlerParallel computes one Adler-32 over data by checksumming
// independent spans concurrently and combining the partials in order.
func adlerParallel(ctx context.Context, data []byte) (uint32, error) {
	ranges := chunkRanges(len(data), defaultAdlerSpan)
	partials := make([]adlerPartial, len(ranges))

	g, _ := errgroup.WithContext(ctx)
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			partials[i] = adlerForBytes(data[r[0]:r[1]])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	merged := adlerIdentity()
	for _, p := range partials {
		merged = merged.combine(p)
	}
	return merged.value(), nil
}

// tokenKind distinguishes a literal byte from a length/distance back-ref.
type tokenKind uint8

const (
	tokLiteral tokenKind = iota
	tokMatch
)

type token struct {
	kind tokenKind
	lit  byte
	len  uint16
	dist uint16
}

type chunkPlan struct {
	tokens []token
}

func hash3(data []byte, i int) uint32 {
	v := (uint32(data[i]) << 16) ^ (uint32(data[i+1]) << 8) ^ uint32(data[i+2])
	return (v * 0x1E35A7BD) >> (32 - hashBits)
}

func matchLen(data []byte, a, b, maxLen int) int {
	l := 0
	for l < maxLen && data[a+l] == data[b+l] {
		l++
	}
	return l
}

// planChunk runs greedy LZ77 over one independent chunk: a hash-chained
// match finder bounded by maxChainSteps, identical in shape to zlib's own
// "fast" strategy. Grounded on flate_native.rs's plan_lz77_chunk.
func planChunk(data []byte) chunkPlan {
	n := len(data)
	if n == 0 {
		return chunkPlan{}
	}

	head := make([]int32, hashSize)
	for i := range head {
		head[i] = -1
	}
	prev := make([]int32, n)

	var tokens []token
	i := 0
	for i < n {
		if i+minMatch > n {
			tokens = append(tokens, token{kind: tokLiteral, lit: data[i]})
			i++
			continue
		}

		h := hash3(data, i)
		cand := head[h]
		prev[i] = cand
		head[h] = int32(i)

		bestLen, bestDist := 0, 0
		steps := 0
		for cand >= 0 && steps < maxChainSteps {
			c := int(cand)
			dist := i - c
			if dist > maxDistance {
				break
			}
			if data[c] == data[i] && data[c+1] == data[i+1] && data[c+2] == data[i+2] {
				maxLen := maxMatch
				if n-i < maxLen {
					maxLen = n - i
				}
				l := matchLen(data, c, i, maxLen)
				if l >= minMatch && (l > bestLen || (l == bestLen && dist < bestDist)) {
					bestLen, bestDist = l, dist
					if bestLen == maxMatch {
						break
					}
				}
			}
			cand = prev[c]
			steps++
		}

		if bestLen >= minMatch {
			tokens = append(tokens, token{kind: tokMatch, len: uint16(bestLen), dist: uint16(bestDist)})
			end := i + bestLen
			if end > n {
				end = n
			}
			for j := i + 1; j < end; j++ {
				if j+minMatch <= n {
					hj := hash3(data, j)
					prev[j] = head[hj]
					head[hj] = int32(j)
				}
			}
			i += bestLen
		} else {
			tokens = append(tokens, token{kind: tokLiteral, lit: data[i]})
			i++
		}
	}
	return chunkPlan{tokens: tokens}
}

// ZlibDeflate compresses data into a zlib stream (2-byte header, one or
// more fixed-Huffman DEFLATE blocks, big-endian Adler-32 trailer).
// Chunk planning runs concurrently across up to errgroup's default
// goroutine fan-out; bitstream assembly stays single-threaded, and chunks
// are always emitted in original order, so output is identical regardless
// of how many goroutines actually ran.
func ZlibDeflate(ctx context.Context, data []byte) ([]byte, error) {
	ranges := chunkRanges(len(data), lz77ChunkBytes)
	plans := make([]chunkPlan, len(ranges))

	g, _ := errgroup.WithContext(ctx)
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			plans[i] = planChunk(data[r[0]:r[1]])
			return nil
		})
	}
	adlerCh := make(chan uint32, 1)
	g.Go(func() error {
		v, err := adlerParallel(ctx, data)
		if err != nil {
			return err
		}
		adlerCh <- v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	adler := <-adlerCh

	bw := newBitWriter(estimateCapacity(len(data)))
	bw.out = append(bw.out, 0x78, 0x01)

	for idx, plan := range plans {
		final := idx+1 == len(plans)
		encodeChunkFixedHuffman(bw, plan, final)
	}

	out := bw.finish()
	out = append(out, byte(adler>>24), byte(adler>>16), byte(adler>>8), byte(adler))
	return out, nil
}

func estimateCapacity(inputLen int) int {
	return 2 + inputLen*2 + 64
}

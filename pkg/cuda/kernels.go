package cuda

// PTX for the LV2 substring sort, loaded at runtime via cuModuleLoadData so
// no nvcc is needed at build time. Target sm_70+.
//
// bitonic_perm_step is one comparator step of a bitonic network over an
// index permutation. Records are never moved: each thread loads two
// permutation entries, compares the records they point at word by word
// (word 0 most significant) and swaps the entries if they are out of order
// for this step's direction. Ties are broken by original index, which makes
// the order strict, so the finished network yields exactly the stable order.
//
// The permutation is padded to a power of two with the sentinel index
// 0xffffffff, which compares greater than every real record and therefore
// collects at the top of the array.
//
// All kernels use 256 threads/block.

const kernelNameBitonicStep = "bitonic_perm_step"

const lv2SortPTX = `
.version 7.0
.target sm_70
.address_size 64

// ============================================================
// bitonic_perm_step(keys, perm, n, words, j, k)
//   keys:  u32 array, record i occupies keys[i*words .. i*words+words)
//   perm:  u32 array of n entries (n is a power of two)
//   j, k:  bitonic step parameters
// ============================================================
.visible .entry bitonic_perm_step(
    .param .u64 p_keys,
    .param .u64 p_perm,
    .param .u32 p_n,
    .param .u32 p_words,
    .param .u32 p_j,
    .param .u32 p_k
) {
    .reg .u32 %r<24>;
    .reg .u64 %rd<12>;
    .reg .pred %p<8>;

    ld.param.u64 %rd1, [p_keys];
    ld.param.u64 %rd2, [p_perm];
    ld.param.u32 %r1, [p_n];
    ld.param.u32 %r2, [p_words];
    ld.param.u32 %r3, [p_j];
    ld.param.u32 %r4, [p_k];

    mov.u32 %r5, %ctaid.x;
    mov.u32 %r6, %tid.x;
    mad.lo.u32 %r7, %r5, 256, %r6;      // i
    setp.ge.u32 %p1, %r7, %r1;
    @%p1 bra $L_done;

    xor.b32 %r8, %r7, %r3;              // partner = i ^ j
    setp.le.u32 %p2, %r8, %r7;          // only the low thread of a pair acts
    @%p2 bra $L_done;

    mul.wide.u32 %rd3, %r7, 4;
    add.u64 %rd4, %rd2, %rd3;           // &perm[i]
    ld.global.u32 %r9, [%rd4];          // a = perm[i]
    mul.wide.u32 %rd5, %r8, 4;
    add.u64 %rd6, %rd2, %rd5;           // &perm[partner]
    ld.global.u32 %r10, [%rd6];         // b = perm[partner]

    // greater := record(a) > record(b); sentinels sort last
    mov.u32 %r11, 0;
    setp.eq.u32 %p4, %r10, 0xffffffff;
    @%p4 bra $L_have;                   // b is +inf: a <= b, greater stays 0
    setp.eq.u32 %p3, %r9, 0xffffffff;
    @%p3 bra $L_a_sent;

    mul.lo.u32 %r12, %r9, %r2;          // a * words
    mul.lo.u32 %r13, %r10, %r2;         // b * words
    mov.u32 %r14, 0;                    // w
$L_loop:
    setp.ge.u32 %p5, %r14, %r2;
    @%p5 bra $L_tie;
    add.u32 %r15, %r12, %r14;
    mul.wide.u32 %rd7, %r15, 4;
    add.u64 %rd8, %rd1, %rd7;
    ld.global.u32 %r16, [%rd8];         // key word of a
    add.u32 %r17, %r13, %r14;
    mul.wide.u32 %rd9, %r17, 4;
    add.u64 %rd10, %rd1, %rd9;
    ld.global.u32 %r18, [%rd10];        // key word of b
    setp.ne.u32 %p6, %r16, %r18;
    @%p6 bra $L_decide;
    add.u32 %r14, %r14, 1;
    bra $L_loop;
$L_decide:
    setp.gt.u32 %p7, %r16, %r18;
    selp.u32 %r11, 1, 0, %p7;
    bra $L_have;
$L_tie:
    setp.gt.u32 %p7, %r9, %r10;         // equal keys: smaller index first
    selp.u32 %r11, 1, 0, %p7;
    bra $L_have;
$L_a_sent:
    mov.u32 %r11, 1;                    // a is +inf, b is real

$L_have:
    // ascending for this pair iff (i & k) == 0; swap iff greater == ascending
    and.b32 %r19, %r7, %r4;
    setp.eq.u32 %p5, %r19, 0;
    selp.u32 %r20, 1, 0, %p5;
    setp.eq.u32 %p6, %r20, %r11;
    @!%p6 bra $L_done;
    st.global.u32 [%rd4], %r10;
    st.global.u32 [%rd6], %r9;
$L_done:
    ret;
}
`

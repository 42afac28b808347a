package mwebctx

import (
	"crypto/sha256"
	"encoding/binary"
	"math/bits"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// RangeProof is a 64-bit single-commitment Bulletproof. Layout:
// tau_x (32) || mu (32) || parity byte || x(A) x(S) x(T1) x(T2) ||
// inner-product argument.
type RangeProof [RangeProofSize]byte

func updateCommitHash(hash *[32]byte, lp, rp *secp256k1.JacobianPoint) {
	var lrParity byte
	if !isQuadraticResidue(&lp.Y) {
		lrParity = 2
	}
	if !isQuadraticResidue(&rp.Y) {
		lrParity++
	}
	h := sha256.New()
	h.Write(hash[:])
	h.Write([]byte{lrParity})
	h.Write(lp.X.Bytes()[:])
	h.Write(rp.X.Bytes()[:])
	h.Sum(hash[:0])
}

// lrGenerator streams the coefficients of the l and r polynomials bit by
// bit, evaluated at the supplied challenge point.
type lrGenerator struct {
	nonce          *SecretKey
	y, z, yn, z22n secp256k1.ModNScalar
	val            uint64
	count          uint32
}

func newLrGenerator(nonce *SecretKey, y, z *secp256k1.ModNScalar, value uint64) *lrGenerator {
	gen := &lrGenerator{nonce: nonce, y: *y, z: *z, val: value}
	gen.yn.SetInt(1)
	return gen
}

func (gen *lrGenerator) generate(x *secp256k1.ModNScalar) (lout, rout secp256k1.ModNScalar) {
	bit := uint32(gen.val>>gen.count) & 1

	if gen.count == 0 {
		gen.z22n.SquareVal(&gen.z)
	}

	sl, sr := scalarChaCha20(gen.nonce, uint64(gen.count)+2)
	sl.Mul(x)
	sr.Mul(x)

	lout.SetInt(bit)
	var negz secp256k1.ModNScalar
	negz.NegateVal(&gen.z)
	lout.Add(&negz)
	lout.Add(&sl)

	rout.SetInt(1 - bit)
	rout.Negate()
	rout.Add(&gen.z)
	rout.Add(&sr)
	rout.Mul(&gen.yn)
	rout.Add(&gen.z22n)

	gen.count++
	gen.yn.Mul(&gen.y)
	gen.z22n.Add(&gen.z22n)
	return
}

// NewRangeProof proves value lies in [0, 2^64) under the commitment
// value*H + blind*G. All prover randomness is drawn deterministically from
// the two nonces; the rewind nonce additionally lets its holder recover the
// value and the 20-byte proof message from -mu. Returns nil on the
// negligible chance of a degenerate transcript challenge.
func NewRangeProof(value uint64, blind *BlindingFactor, rewindNonce,
	privateNonce *SecretKey, proofMessage [20]byte, extraData []byte) *RangeProof {

	// Commit to all input data: pedersen commit, value generator, extra data.
	var commitHash [32]byte
	updateCommitHash(&commitHash, newCommitmentPoint(blind.scalar(), value), generatorH())
	h := sha256.New()
	h.Write(commitHash[:])
	h.Write(extraData)
	h.Sum(commitHash[:0])

	alpha, rho := scalarChaCha20(rewindNonce, 0)
	tau1, tau2 := scalarChaCha20(privateNonce, 1)

	// Encrypt the value into alpha so it is recoverable from -mu by a
	// holder of the rewind nonce, alongside the 20-byte message.
	var vals secp256k1.ModNScalar
	vals.SetByteSlice(binary.BigEndian.AppendUint64(proofMessage[:], value))
	alpha.Add(vals.Negate()) // negate so it'll be positive in -mu

	// Compute A and S.
	var aj, sj secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&alpha, &aj)
	secp256k1.ScalarBaseMultNonConst(&rho, &sj)
	for j := uint32(0); j < rangeProofBits; j++ {
		al := value&(1<<j) > 0
		aterm := *rangeProofGenerators[j+128]
		sl, sr := scalarChaCha20(rewindNonce, uint64(j)+2)
		aterm.Y.Negate(1)
		if al {
			aterm = *rangeProofGenerators[j]
		}
		secp256k1.AddNonConst(&aj, &aterm, &aj)

		var stermj secp256k1.JacobianPoint
		secp256k1.ScalarMultNonConst(&sl, rangeProofGenerators[j], &stermj)
		secp256k1.AddNonConst(&sj, &stermj, &sj)
		secp256k1.ScalarMultNonConst(&sr, rangeProofGenerators[j+128], &stermj)
		secp256k1.AddNonConst(&sj, &stermj, &sj)
	}
	aj.ToAffine()
	sj.ToAffine()

	// Get challenges y and z.
	outPt := [4]secp256k1.JacobianPoint{aj, sj}
	updateCommitHash(&commitHash, &outPt[0], &outPt[1])
	var y, z, zsq secp256k1.ModNScalar
	if y.SetBytes(&commitHash) > 0 || y.IsZero() {
		return nil
	}
	updateCommitHash(&commitHash, &outPt[0], &outPt[1])
	if z.SetBytes(&commitHash) > 0 || z.IsZero() {
		return nil
	}
	zsq.SquareVal(&z)

	// Compute coefficients t0, t1, t2 of the <l, r> polynomial.
	var t0, t1, t2, zero secp256k1.ModNScalar

	// t0 = l(0) dot r(0)
	lrGen := newLrGenerator(rewindNonce, &y, &z, value)
	for i := 0; i < rangeProofBits; i++ {
		l, r := lrGen.generate(&zero)
		t0.Add(l.Mul(&r))
	}

	// A = t0 + t1 + t2 = l(1) dot r(1)
	lrGen = newLrGenerator(rewindNonce, &y, &z, value)
	for i := 0; i < rangeProofBits; i++ {
		l, r := lrGen.generate(new(secp256k1.ModNScalar).SetInt(1))
		t1.Add(l.Mul(&r))
	}

	// B = t0 - t1 + t2 = l(-1) dot r(-1)
	lrGen = newLrGenerator(rewindNonce, &y, &z, value)
	for i := 0; i < rangeProofBits; i++ {
		l, r := lrGen.generate(new(secp256k1.ModNScalar).SetInt(1).Negate())
		t2.Add(l.Mul(&r))
	}

	// t1 = (A - B)/2
	var tmps secp256k1.ModNScalar
	tmps.SetInt(2).InverseNonConst()
	t1.Add(t2.Negate()).Mul(&tmps)

	// t2 = -(-B + t0) + t1
	t2.Add(&t0).Negate().Add(&t1)

	// Compute Ti = tau_i*G + t_i*H for i = 1,2.
	var tmpj secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&t1, generatorH(), &outPt[2])
	secp256k1.ScalarBaseMultNonConst(&tau1, &tmpj)
	secp256k1.AddNonConst(&outPt[2], &tmpj, &outPt[2])
	outPt[2].ToAffine()

	secp256k1.ScalarMultNonConst(&t2, generatorH(), &outPt[3])
	secp256k1.ScalarBaseMultNonConst(&tau2, &tmpj)
	secp256k1.AddNonConst(&outPt[3], &tmpj, &outPt[3])
	outPt[3].ToAffine()

	var x, xsq secp256k1.ModNScalar
	updateCommitHash(&commitHash, &outPt[2], &outPt[3])
	if x.SetBytes(&commitHash) > 0 || x.IsZero() {
		return nil
	}
	xsq.SquareVal(&x)

	// Compute tau_x and mu.
	var taux, mu secp256k1.ModNScalar
	taux.Mul2(&tau1, &x)
	taux.Add(tmps.Mul2(&tau2, &xsq))
	taux.Add(tmps.Mul2(&zsq, blind.scalar()))
	mu.Mul2(&rho, &x).Add(&alpha)

	// Negate tau_x and mu so the verifier doesn't have to.
	taux.Negate()
	mu.Negate()

	proof := &RangeProof{}
	taux.PutBytesUnchecked(proof[:])
	mu.PutBytesUnchecked(proof[32:])
	for i := range outPt {
		outPt[i].X.PutBytesUnchecked(proof[65+i*32:])
		if !isQuadraticResidue(&outPt[i].Y) {
			proof[64] |= 1 << i
		}
	}

	// Mix this into the hash so the input to the inner product proof is
	// fixed.
	h = sha256.New()
	h.Write(commitHash[:])
	h.Write(proof[:64])
	h.Sum(commitHash[:0])

	// Compute l and r, then run the inner product argument over them.
	yinv := y
	yinv.InverseNonConst()
	var a, b [rangeProofBits]secp256k1.ModNScalar
	lrGen = newLrGenerator(rewindNonce, &y, &z, value)
	for i := 0; i < rangeProofBits; i++ {
		a[i], b[i] = lrGen.generate(&x)
	}
	proveInnerProduct(proof[innerProductOffset:], &commitHash, a[:], b[:], &yinv)

	alpha.Zero()
	rho.Zero()
	tau1.Zero()
	tau2.Zero()
	return proof
}

// buildIPGenerators returns working copies of the inner-product generators:
// G_0..G_63 verbatim and H_0..H_63 pre-weighted by ascending powers of
// y^-1.
func buildIPGenerators(yinv *secp256k1.ModNScalar) (genG, genH []secp256k1.JacobianPoint) {
	genG = make([]secp256k1.JacobianPoint, rangeProofBits)
	genH = make([]secp256k1.JacobianPoint, rangeProofBits)
	var yn secp256k1.ModNScalar
	yn.SetInt(1)
	for i := 0; i < rangeProofBits; i++ {
		genG[i] = *rangeProofGenerators[i]
		secp256k1.ScalarMultNonConst(&yn, rangeProofGenerators[i+128], &genH[i])
		genH[i].ToAffine()
		yn.Mul(yinv)
	}
	return
}

// foldGenerators halves the generator arrays in place:
// G'[j] = x^-1*G[2j] + x*G[2j+1], H'[j] = x*H[2j] + x^-1*H[2j+1].
func foldGenerators(genG, genH []secp256k1.JacobianPoint, xk, xkInv *secp256k1.ModNScalar, half int) {
	var g1, g2 secp256k1.JacobianPoint
	for j := 0; j < half; j++ {
		secp256k1.ScalarMultNonConst(xkInv, &genG[2*j], &g1)
		secp256k1.ScalarMultNonConst(xk, &genG[2*j+1], &g2)
		secp256k1.AddNonConst(&g1, &g2, &genG[j])
		secp256k1.ScalarMultNonConst(xk, &genH[2*j], &g1)
		secp256k1.ScalarMultNonConst(xkInv, &genH[2*j+1], &g2)
		secp256k1.AddNonConst(&g1, &g2, &genH[j])
	}
}

// proveInnerProduct writes the recursive inner-product argument for the
// vectors a and b. Each round commits to the even/odd cross terms L and R,
// derives a challenge from the transcript, and folds vectors and
// generators to half width until only two scalars of each vector remain.
func proveInnerProduct(proof []byte, commitHash *[32]byte, a, b []secp256k1.ModNScalar, yinv *secp256k1.ModNScalar) {
	n := len(a)
	genG, genH := buildIPGenerators(yinv)

	// Record the final dot product.
	var dot, term secp256k1.ModNScalar
	for i := range a {
		dot.Add(term.Mul2(&a[i], &b[i]))
	}
	dot.PutBytesUnchecked(proof)

	// Protocol 2: hash the dot product to obtain the G randomizer.
	h := sha256.New()
	h.Write(commitHash[:])
	h.Write(proof[:32])
	h.Sum(commitHash[:0])
	var ux secp256k1.ModNScalar
	ux.SetByteSlice(commitHash[:])

	var lrPoints []secp256k1.JacobianPoint
	for n > ipAbScalars/2 {
		half := n / 2

		var cL, cR, s secp256k1.ModNScalar
		for j := 0; j < half; j++ {
			cL.Add(term.Mul2(&a[2*j], &b[2*j+1]))
			cR.Add(term.Mul2(&a[2*j+1], &b[2*j]))
		}

		var lj, rj, tmp secp256k1.JacobianPoint
		s.Mul2(&cL, &ux)
		secp256k1.ScalarBaseMultNonConst(&s, &lj)
		s.Mul2(&cR, &ux)
		secp256k1.ScalarBaseMultNonConst(&s, &rj)
		for j := 0; j < half; j++ {
			secp256k1.ScalarMultNonConst(&a[2*j], &genG[2*j+1], &tmp)
			secp256k1.AddNonConst(&lj, &tmp, &lj)
			secp256k1.ScalarMultNonConst(&b[2*j+1], &genH[2*j], &tmp)
			secp256k1.AddNonConst(&lj, &tmp, &lj)
			secp256k1.ScalarMultNonConst(&a[2*j+1], &genG[2*j], &tmp)
			secp256k1.AddNonConst(&rj, &tmp, &rj)
			secp256k1.ScalarMultNonConst(&b[2*j], &genH[2*j+1], &tmp)
			secp256k1.AddNonConst(&rj, &tmp, &rj)
		}
		lj.ToAffine()
		rj.ToAffine()
		updateCommitHash(commitHash, &lj, &rj)

		var xk, xkInv secp256k1.ModNScalar
		xk.SetByteSlice(commitHash[:])
		xkInv = xk
		xkInv.InverseNonConst()

		var t1, t2 secp256k1.ModNScalar
		for j := 0; j < half; j++ {
			t1.Mul2(&a[2*j], &xk)
			t2.Mul2(&a[2*j+1], &xkInv)
			a[j] = *t1.Add(&t2)
			t1.Mul2(&b[2*j], &xkInv)
			t2.Mul2(&b[2*j+1], &xk)
			b[j] = *t1.Add(&t2)
		}
		foldGenerators(genG, genH, &xk, &xkInv, half)

		lrPoints = append(lrPoints, lj, rj)
		n = half
	}

	// Final a/b values, then the round points.
	proof = proof[32:]
	for i := 0; i < n; i++ {
		a[i].PutBytesUnchecked(proof[32*i:])
		b[i].PutBytesUnchecked(proof[32*(n+i):])
	}
	serializePoints(proof[32*2*n:], lrPoints)
}

// serializePoints writes a bit vector of y-quadratic-residue parities
// followed by the x coordinate of every point.
func serializePoints(out []byte, pts []secp256k1.JacobianPoint) {
	bitVecLen := (len(pts) + 7) / 8
	for i := range pts {
		pts[i].X.PutBytesUnchecked(out[bitVecLen+32*i:])
		if !isQuadraticResidue(&pts[i].Y) {
			out[i/8] |= 1 << (i % 8)
		}
	}
}

// InnerProductProofLength returns the byte length of an inner-product
// argument over vectors of length n.
func InnerProductProofLength(n int) int {
	if n < ipAbScalars/2 {
		return 32 * (1 + 2*n)
	}
	rounds := bits.OnesCount(uint(n)) - 1 + bits.Len(uint(2*n/ipAbScalars)) - 1
	return 32*(1+2*rounds+ipAbScalars) + (2*rounds+7)/8
}

// decompressProofPoint rebuilds a point from an x coordinate and a parity
// bit; the bit is set when y is not a quadratic residue.
func decompressProofPoint(x []byte, negate bool) (*secp256k1.JacobianPoint, error) {
	var p secp256k1.JacobianPoint
	var alpha secp256k1.FieldVal
	if p.X.SetByteSlice(x) {
		return nil, ErrMalformedProof
	}
	alpha.SquareVal(&p.X).Mul(&p.X).AddInt(7).Normalize()
	if !p.Y.SquareRootVal(&alpha) {
		return nil, ErrMalformedProof
	}
	p.Y.Normalize()
	if negate {
		p.Y.Negate(1).Normalize()
	}
	p.Z.SetInt(1)
	return &p, nil
}

func parseProofScalar(b []byte) (*secp256k1.ModNScalar, error) {
	var s secp256k1.ModNScalar
	if s.SetByteSlice(b) {
		return nil, ErrMalformedProof
	}
	return &s, nil
}

func isInfinity(p *secp256k1.JacobianPoint) bool {
	p.X.Normalize()
	p.Y.Normalize()
	p.Z.Normalize()
	return (p.X.IsZero() && p.Y.IsZero()) || p.Z.IsZero()
}

func addScaled(acc *secp256k1.JacobianPoint, s *secp256k1.ModNScalar, p *secp256k1.JacobianPoint) {
	var tmp secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(s, p, &tmp)
	secp256k1.AddNonConst(acc, &tmp, acc)
}

func addScaledBase(acc *secp256k1.JacobianPoint, s *secp256k1.ModNScalar) {
	var tmp secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(s, &tmp)
	secp256k1.AddNonConst(acc, &tmp, acc)
}

// Verify checks the proof against the commitment it ranges over, replaying
// the transcript and checking the polynomial identity and the folded
// inner-product relation.
func (proof *RangeProof) Verify(commit *Commitment, extraData []byte) error {
	commitPoint, err := commit.point()
	if err != nil {
		return ErrMalformedProof
	}

	var commitHash [32]byte
	updateCommitHash(&commitHash, commitPoint, generatorH())
	h := sha256.New()
	h.Write(commitHash[:])
	h.Write(extraData)
	h.Sum(commitHash[:0])

	taux, err := parseProofScalar(proof[0:32])
	if err != nil {
		return err
	}
	mu, err := parseProofScalar(proof[32:64])
	if err != nil {
		return err
	}
	var outPt [4]*secp256k1.JacobianPoint
	for i := range outPt {
		outPt[i], err = decompressProofPoint(
			proof[65+i*32:97+i*32], proof[64]&(1<<i) != 0)
		if err != nil {
			return err
		}
	}
	aPt, sPt, t1Pt, t2Pt := outPt[0], outPt[1], outPt[2], outPt[3]

	// Challenges y, z, x.
	updateCommitHash(&commitHash, aPt, sPt)
	var y, z, x, zsq, xsq secp256k1.ModNScalar
	if y.SetBytes(&commitHash) > 0 || y.IsZero() {
		return ErrRangeProofInvalid
	}
	updateCommitHash(&commitHash, aPt, sPt)
	if z.SetBytes(&commitHash) > 0 || z.IsZero() {
		return ErrRangeProofInvalid
	}
	zsq.SquareVal(&z)
	updateCommitHash(&commitHash, t1Pt, t2Pt)
	if x.SetBytes(&commitHash) > 0 || x.IsZero() {
		return ErrRangeProofInvalid
	}
	xsq.SquareVal(&x)

	tHat, err := parseProofScalar(proof[innerProductOffset : innerProductOffset+32])
	if err != nil {
		return err
	}

	// Polynomial identity:
	// tHat*H == z^2*V + delta(y,z)*H + x*T1 + x^2*T2 - tau_x*G with
	// delta = (z - z^2)*sum(y^i) - z^3*(2^64 - 1). tau_x is stored
	// negated, so it is added.
	var sumY, yn, delta, z3, tmp secp256k1.ModNScalar
	yn.SetInt(1)
	for i := 0; i < rangeProofBits; i++ {
		sumY.Add(&yn)
		yn.Mul(&y)
	}
	delta.NegateVal(&zsq).Add(&z).Mul(&sumY)
	z3.Mul2(&zsq, &z)
	tmp.SetByteSlice([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	tmp.Mul(&z3).Negate()
	delta.Add(&tmp)

	var check secp256k1.JacobianPoint
	addScaled(&check, &zsq, commitPoint)
	tmp = delta
	tmp.Add(tHat.Negate())
	tHat.Negate() // restore
	addScaled(&check, &tmp, generatorH())
	addScaled(&check, &x, t1Pt)
	addScaled(&check, &xsq, t2Pt)
	addScaledBase(&check, taux)
	if !isInfinity(&check) {
		return ErrRangeProofInvalid
	}

	// Fix the transcript over tau_x and mu, then over the dot product, to
	// recover the inner-product randomizer.
	h = sha256.New()
	h.Write(commitHash[:])
	h.Write(proof[:64])
	h.Sum(commitHash[:0])
	h = sha256.New()
	h.Write(commitHash[:])
	h.Write(proof[innerProductOffset : innerProductOffset+32])
	h.Sum(commitHash[:0])
	var ux secp256k1.ModNScalar
	ux.SetByteSlice(commitHash[:])

	// P' = A + x*S + mu*G - z*sum(G_i) + sum((z*y^i + z^2*2^i)*H'_i)
	// over the y^-1-weighted H generators; mu is stored negated.
	yinv := y
	yinv.InverseNonConst()
	genG, genH := buildIPGenerators(&yinv)

	var pPrime secp256k1.JacobianPoint
	secp256k1.AddNonConst(aPt, &pPrime, &pPrime)
	addScaled(&pPrime, &x, sPt)
	addScaledBase(&pPrime, mu)
	var negz, pow2, coeff secp256k1.ModNScalar
	negz.NegateVal(&z)
	pow2.SetInt(1)
	yn.SetInt(1)
	for i := 0; i < rangeProofBits; i++ {
		addScaled(&pPrime, &negz, &genG[i])
		coeff.Mul2(&z, &yn)
		tmp.Mul2(&zsq, &pow2)
		coeff.Add(&tmp)
		addScaled(&pPrime, &coeff, &genH[i])
		yn.Mul(&y)
		pow2.Add(&pow2)
	}

	// Replay the folding rounds.
	ipp := proof[innerProductOffset:]
	aFinal := make([]*secp256k1.ModNScalar, ipAbScalars/2)
	bFinal := make([]*secp256k1.ModNScalar, ipAbScalars/2)
	for i := range aFinal {
		if aFinal[i], err = parseProofScalar(ipp[32+32*i : 64+32*i]); err != nil {
			return err
		}
		if bFinal[i], err = parseProofScalar(ipp[96+32*i : 128+32*i]); err != nil {
			return err
		}
	}

	nRounds := bits.Len(uint(rangeProofBits/(ipAbScalars/2))) - 1
	ptBytes := ipp[32+32*ipAbScalars:]
	bitVecLen := (2*nRounds + 7) / 8

	lhs := pPrime
	var s secp256k1.ModNScalar
	s.Mul2(tHat, &ux)
	addScaledBase(&lhs, &s)

	n := rangeProofBits
	for k := 0; k < nRounds; k++ {
		lIdx, rIdx := 2*k, 2*k+1
		lPt, err := decompressProofPoint(
			ptBytes[bitVecLen+32*lIdx:bitVecLen+32*lIdx+32],
			ptBytes[lIdx/8]&(1<<(lIdx%8)) != 0)
		if err != nil {
			return err
		}
		rPt, err := decompressProofPoint(
			ptBytes[bitVecLen+32*rIdx:bitVecLen+32*rIdx+32],
			ptBytes[rIdx/8]&(1<<(rIdx%8)) != 0)
		if err != nil {
			return err
		}
		updateCommitHash(&commitHash, lPt, rPt)

		var xk, xkInv, xkSq, xkInvSq secp256k1.ModNScalar
		xk.SetByteSlice(commitHash[:])
		xkInv = xk
		xkInv.InverseNonConst()
		xkSq.SquareVal(&xk)
		xkInvSq.SquareVal(&xkInv)
		addScaled(&lhs, &xkSq, lPt)
		addScaled(&lhs, &xkInvSq, rPt)

		foldGenerators(genG, genH, &xk, &xkInv, n/2)
		n /= 2
	}

	// Final multiexponentiation check.
	var rhs secp256k1.JacobianPoint
	var abDot secp256k1.ModNScalar
	for i := range aFinal {
		addScaled(&rhs, aFinal[i], &genG[i])
		addScaled(&rhs, bFinal[i], &genH[i])
		abDot.Add(tmp.Mul2(aFinal[i], bFinal[i]))
	}
	s.Mul2(&abDot, &ux)
	addScaledBase(&rhs, &s)

	rhs.Y.Normalize()
	rhs.Y.Negate(1)
	var diff secp256k1.JacobianPoint
	secp256k1.AddNonConst(&lhs, &rhs, &diff)
	if !isInfinity(&diff) {
		return ErrRangeProofInvalid
	}
	return nil
}

package geom

// row-major 3x3 matrix
type Matrix3 [9]Element

func NewMatrix3() *Matrix3 {
	return &Matrix3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// NewMatrix3FromRows builds a matrix whose rows are the given vectors.
func NewMatrix3FromRows(x, y, z *Vector3) *Matrix3 {
	return &Matrix3{
		x.X, x.Y, x.Z,
		y.X, y.Y, y.Z,
		z.X, z.Y, z.Z,
	}
}

func (mat *Matrix3) Row(i int) *Vector3 {
	return &Vector3{mat[i*3], mat[i*3+1], mat[i*3+2]}
}

func (mat *Matrix3) ApplyTo(v *Vector3) *Vector3 {
	return &Vector3{
		mat[0]*v.X + mat[1]*v.Y + mat[2]*v.Z,
		mat[3]*v.X + mat[4]*v.Y + mat[5]*v.Z,
		mat[6]*v.X + mat[7]*v.Y + mat[8]*v.Z,
	}
}

func (mat *Matrix3) Mul(mat2 *Matrix3) *Matrix3 {
	m := &Matrix3{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i*3+j] = mat[i*3]*mat2[j] + mat[i*3+1]*mat2[3+j] + mat[i*3+2]*mat2[6+j]
		}
	}
	return m
}

func (mat *Matrix3) Transposed() *Matrix3 {
	return &Matrix3{
		mat[0], mat[3], mat[6],
		mat[1], mat[4], mat[7],
		mat[2], mat[5], mat[8],
	}
}

package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeLesionName(t *testing.T) {
	require.Equal(t, LesionAphthousUlcer, NormalizeLesionName("Aphthous_Ulcers"))
	require.Equal(t, LesionOralCandidiasis, NormalizeLesionName("thrush"))
	require.Equal(t, LesionXerostomia, NormalizeLesionName(" Dry Mouth "))
	require.Equal(t, LesionGingivitis, NormalizeLesionName("Gingivitis"))
	require.Equal(t, "Tongue Coating", NormalizeLesionName("Tongue Coating"))
}

func TestLesionDiseasesReferenceKnownDiseases(t *testing.T) {
	known := make(map[string]bool)
	for _, d := range KnownDiseases {
		known[d] = true
	}
	for lesion, diseases := range LesionDiseases {
		require.NotEmpty(t, diseases, lesion)
		for _, d := range diseases {
			require.True(t, known[d], "%s maps to unknown disease %s", lesion, d)
		}
	}
}

func TestIsExcludedClass(t *testing.T) {
	require.True(t, IsExcludedClass("Enamel_Hypoplasia"))
	require.True(t, IsExcludedClass("Enamel Hypoplasia"))
	require.True(t, IsExcludedClass(" enamel-hypoplasia "))
	require.False(t, IsExcludedClass(LesionGingivitis))
}

func TestHistoryRecordDropsImage(t *testing.T) {
	r := &DetectionResult{ID: "1", ImageURL: "data:image/jpeg;base64,AAA"}
	rec := r.HistoryRecord()
	require.Empty(t, rec.ImageURL)
	require.Equal(t, "data:image/jpeg;base64,AAA", r.ImageURL)
	require.False(t, r.HasDetections())
}

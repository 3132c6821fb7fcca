package entity

import "strings"

// Поражения полости рта, которые распознаёт модель.
const (
	LesionAphthousUlcer   = "Aphthous Ulcer"
	LesionXerostomia      = "Xerostomia"
	LesionDentalCaries    = "Dental Caries"
	LesionMucosalTags     = "Mucosal Tags"
	LesionGingivitis      = "Gingivitis"
	LesionOralCandidiasis = "Oral Candidiasis"
)

// Системные заболевания, вероятность которых оценивается по поражениям.
const (
	DiseaseCrohns            = "Crohn's Disease"
	DiseaseUlcerativeColitis = "Ulcerative Colitis"
	DiseaseCeliac            = "Celiac Disease"
	DiseaseChronicLiver      = "Chronic Liver Disease"
)

// KnownDiseases задаёт порядок заболеваний в ответах.
var KnownDiseases = []string{
	DiseaseCrohns,
	DiseaseUlcerativeColitis,
	DiseaseCeliac,
	DiseaseChronicLiver,
}

// LesionDiseases связывает поражение с кандидатами системных заболеваний.
// Таблица неизменна во время работы процесса.
var LesionDiseases = map[string][]string{
	LesionAphthousUlcer:   {DiseaseCrohns, DiseaseUlcerativeColitis, DiseaseCeliac},
	LesionXerostomia:      {DiseaseChronicLiver, DiseaseCeliac},
	LesionDentalCaries:    {DiseaseCeliac},
	LesionMucosalTags:     {DiseaseCrohns, DiseaseCeliac},
	LesionGingivitis:      {DiseaseCrohns, DiseaseChronicLiver, DiseaseUlcerativeColitis},
	LesionOralCandidiasis: {DiseaseChronicLiver, DiseaseCeliac},
}

// excludedClasses классы модели, которые не показываются пользователю.
// Ключи в виде classKey.
var excludedClasses = map[string]struct{}{
	"enamel_hypoplasia": {},
}

var lesionAliases = map[string]string{
	"aphthous_ulcers":  LesionAphthousUlcer,
	"aphthous ulcer":   LesionAphthousUlcer,
	"aphthous-ulcer":   LesionAphthousUlcer,
	"ulcer":            LesionAphthousUlcer,
	"mucosal_tags":     LesionMucosalTags,
	"mucosal tags":     LesionMucosalTags,
	"mucosal-tags":     LesionMucosalTags,
	"xerostomia":       LesionXerostomia,
	"dry mouth":        LesionXerostomia,
	"dental caries":    LesionDentalCaries,
	"dental-caries":    LesionDentalCaries,
	"dental_caries":    LesionDentalCaries,
	"caries":           LesionDentalCaries,
	"cavity":           LesionDentalCaries,
	"oral_candidiasis": LesionOralCandidiasis,
	"oral candidiasis": LesionOralCandidiasis,
	"oral-candidiasis": LesionOralCandidiasis,
	"candidiasis":      LesionOralCandidiasis,
	"thrush":           LesionOralCandidiasis,
	"gingivitis":       LesionGingivitis,
	"gum disease":      LesionGingivitis,
}

// NormalizeLesionName приводит имя класса модели к отображаемому имени поражения.
// Неизвестные имена возвращаются без изменений.
func NormalizeLesionName(label string) string {
	if name, ok := lesionAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return name
	}
	return label
}

// IsExcludedClass сообщает, что класс нужно отбросить.
// Регистр и разделители (пробел, дефис, подчёркивание) не учитываются.
func IsExcludedClass(label string) bool {
	_, ok := excludedClasses[classKey(label)]
	return ok
}

var classSeparators = strings.NewReplacer(" ", "_", "-", "_")

func classKey(label string) string {
	return classSeparators.Replace(strings.ToLower(strings.TrimSpace(label)))
}

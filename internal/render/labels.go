package render

import "fmt"

// Labels 文档中出现的固定文字
type Labels struct {
	NameNotFound string

	City         string
	Neighborhood string
	Email        string
	Phone        string
	Position     string
	NotAvailable string

	Education      string
	Certifications string
	Qualifications string
	Experiences    string
	Projects       string
	PeriodPrefix   string

	InstitutionMissing string
	DegreeMissing      string
	YearMissing        string
	CertificateMissing string
	TitleMissing       string
	CompanyMissing     string
	PeriodMissing      string
	ProjectMissing     string
}

// EnglishLabels 默认标签
var EnglishLabels = Labels{
	NameNotFound: "Name Not Found",

	City:         "City",
	Neighborhood: "Neighborhood",
	Email:        "Email",
	Phone:        "Phone",
	Position:     "Position",
	NotAvailable: "N/A",

	Education:      "Education",
	Certifications: "Certifications",
	Qualifications: "Qualifications Summary",
	Experiences:    "Experiences",
	Projects:       "Projects",
	PeriodPrefix:   "Period: ",

	InstitutionMissing: "Institution Not Specified",
	DegreeMissing:      "Degree Not Specified",
	YearMissing:        "Year Not Specified",
	CertificateMissing: "Certificate Not Specified",
	TitleMissing:       "Title Not Specified",
	CompanyMissing:     "Company Not Specified",
	PeriodMissing:      "Period Not Specified",
	ProjectMissing:     "Project Not Specified",
}

// PortugueseLabels 葡语标签
var PortugueseLabels = Labels{
	NameNotFound: "Nome Não Encontrado",

	City:         "Cidade",
	Neighborhood: "Bairro",
	Email:        "Email",
	Phone:        "Telefone",
	Position:     "Posição",
	NotAvailable: "N/A",

	Education:      "Formação",
	Certifications: "Certificações",
	Qualifications: "Resumo de Qualificações",
	Experiences:    "Experiências",
	Projects:       "Projetos",
	PeriodPrefix:   "Período: ",

	InstitutionMissing: "Instituição Não Especificada",
	DegreeMissing:      "Grau Não Especificado",
	YearMissing:        "Ano Não Especificado",
	CertificateMissing: "Certificado Não Especificado",
	TitleMissing:       "Cargo Não Especificado",
	CompanyMissing:     "Empresa Não Especificada",
	PeriodMissing:      "Período Não Especificado",
	ProjectMissing:     "Projeto Não Especificado",
}

// LabelsFor 按语言代码返回标签，空字符串使用英文
func LabelsFor(language string) (Labels, error) {
	switch language {
	case "", "en":
		return EnglishLabels, nil
	case "pt":
		return PortugueseLabels, nil
	default:
		return Labels{}, fmt.Errorf("不支持的渲染语言: %s", language)
	}
}

// Package quote формирует заявку на расчёт стоимости доставки для отправки в WhatsApp.
package quote

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmeshcher/juentregas/internal/apperr"
	"github.com/mmeshcher/juentregas/internal/model"
	"github.com/mmeshcher/juentregas/internal/validation"
)

// DefaultWhatsAppNumber задаёт номер компании, на который уходят заявки.
const DefaultWhatsAppNumber = "5521986039803"

// Request содержит данные формы запроса стоимости.
type Request struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email"`
	Phone        string `json:"phone" validate:"required"`
	Company      string `json:"company"`
	Origin       string `json:"origin" validate:"required"`
	Destination  string `json:"destination" validate:"required"`
	Weight       string `json:"weight"`
	Dimensions   string `json:"dimensions"`
	PackageType  string `json:"packageType"`
	Urgent       bool   `json:"urgent"`
	Refrigerated bool   `json:"refrigerated"`
	Insured      bool   `json:"insured"`
	Observations string `json:"observations"`
}

// Quote содержит готовое сообщение и ссылку для открытия диалога.
type Quote struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Builder собирает сообщения заявок.
type Builder struct {
	number   string
	validate *validator.Validate
}

// NewBuilder создаёт Builder для указанного номера WhatsApp.
func NewBuilder(number string) *Builder {
	if number == "" {
		number = DefaultWhatsAppNumber
	}
	return &Builder{
		number:   validation.NormalizeDigits(number),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Build проверяет обязательные поля и формирует сообщение со ссылкой wa.me.
func (b *Builder) Build(r Request) (*Quote, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Origin = strings.TrimSpace(r.Origin)
	r.Destination = strings.TrimSpace(r.Destination)

	if err := b.validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate quote: %w", err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()[:1])+fe.Field()[1:])
		}
		return nil, apperr.Validation(strings.Join(fields, ","), "Por favor, preencha todos os campos obrigatórios.")
	}

	msg := Message(r)
	return &Quote{
		Message: msg,
		URL:     fmt.Sprintf("https://wa.me/%s?text=%s", b.number, encodeComponent(msg)),
	}, nil
}

// Message формирует текст заявки.
func Message(r Request) string {
	var sb strings.Builder

	sb.WriteString("🚚 *Solicitação de Cotação - JuEntregas*\n\n")

	sb.WriteString("👤 *Dados do Solicitante:*\n")
	fmt.Fprintf(&sb, "• Nome: %s\n", r.Name)
	fmt.Fprintf(&sb, "• Email: %s\n", r.Email)
	fmt.Fprintf(&sb, "• Telefone: %s\n", validation.FormatPhone(r.Phone))
	if r.Company != "" {
		fmt.Fprintf(&sb, "• Empresa: %s\n", r.Company)
	}

	sb.WriteString("\n📦 *Detalhes da Encomenda:*\n")
	fmt.Fprintf(&sb, "• Origem: %s\n", r.Origin)
	fmt.Fprintf(&sb, "• Destino: %s\n", r.Destination)
	fmt.Fprintf(&sb, "• Peso: %s\n", r.Weight)
	fmt.Fprintf(&sb, "• Dimensões: %s\n", r.Dimensions)
	fmt.Fprintf(&sb, "• Tipo: %s\n", packageType(r.PackageType))

	sb.WriteString("\n🔧 *Serviços Adicionais:*\n")
	if r.Urgent {
		sb.WriteString("• ✅ Entrega Urgente\n")
	}
	if r.Refrigerated {
		sb.WriteString("• ❄️ Refrigerada\n")
	}
	if r.Insured {
		sb.WriteString("• 🛡️ Seguro\n")
	}

	if obs := strings.TrimSpace(r.Observations); obs != "" {
		fmt.Fprintf(&sb, "\n💬 *Observações:*\n%s\n", obs)
	}

	sb.WriteString("\nAguardo retorno com a cotação! 😊")
	return sb.String()
}

func packageType(code string) string {
	if code == "" {
		return ""
	}
	return model.PackageTypeLabel(code)
}

// encodeComponent экранирует текст для параметра ссылки, пробел кодируется как %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

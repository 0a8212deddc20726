// Package model содержит доменные сущности сервиса JuEntregas.
package model

// OrderStatus описывает статус доставки заказа.
type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "Pedido Criado"
	OrderStatusCollected      OrderStatus = "Coletado"
	OrderStatusInTransit      OrderStatus = "Em Trânsito"
	OrderStatusOutForDelivery OrderStatus = "Saiu para Entrega"
	OrderStatusDelivered      OrderStatus = "Entregue"
	OrderStatusPending        OrderStatus = "Pendente"
)

// OrderStatuses перечисляет допустимые статусы в порядке жизненного цикла.
var OrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusCollected,
	OrderStatusInTransit,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusPending,
}

// Valid сообщает, входит ли статус в фиксированный перечень.
func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Имена иконок этапов отслеживания.
const (
	IconPackage     = "Package"
	IconCheckCircle = "CheckCircle"
	IconTruck       = "Truck"
	IconMapPin      = "MapPin"
	IconClock       = "Clock"
	IconAlertCircle = "AlertCircle"
)

// StatusIcon возвращает иконку, соответствующую статусу.
func StatusIcon(s OrderStatus) string {
	switch s {
	case OrderStatusDelivered:
		return IconCheckCircle
	case OrderStatusInTransit:
		return IconTruck
	case OrderStatusCollected:
		return IconPackage
	case OrderStatusOutForDelivery:
		return IconMapPin
	case OrderStatusPending:
		return IconClock
	default:
		return IconAlertCircle
	}
}

// StatusColor возвращает цвет бейджа статуса.
func StatusColor(s OrderStatus) string {
	switch s {
	case OrderStatusDelivered:
		return "green"
	case OrderStatusInTransit, OrderStatusOutForDelivery:
		return "blue"
	case OrderStatusCollected, OrderStatusCreated, OrderStatusPending:
		return "yellow"
	default:
		return "gray"
	}
}

// Коды типов посылок.
const (
	PackageTypeNormal       = "encomenda-normal"
	PackageTypeRefrigerated = "encomenda-refrigerada"
	PackageTypeHeavy        = "carga-pesada"
	PackageTypeDocument     = "documento"
	PackageTypeFragile      = "fragil"
)

// PackageTypeLabel переводит внутренний код типа посылки в подпись для клиента.
func PackageTypeLabel(code string) string {
	switch code {
	case PackageTypeNormal:
		return "Encomenda Normal"
	case PackageTypeRefrigerated:
		return "Encomenda Refrigerada"
	case PackageTypeHeavy:
		return "Carga Pesada (até 30T)"
	case PackageTypeDocument:
		return "Documento"
	case PackageTypeFragile:
		return "Produto Frágil"
	default:
		return "Outro Tipo"
	}
}

// Client представляет клиента транспортной компании.
type Client struct {
	ID       string `json:"id" yaml:"id"`
	FullName string `json:"fullName" yaml:"fullName"`
	CPF      string `json:"cpf" yaml:"cpf"`
	Phone    string `json:"phone,omitempty" yaml:"phone"`
	Email    string `json:"email,omitempty" yaml:"email"`
}

// Event описывает один шаг истории доставки.
type Event struct {
	ID          string      `json:"id" yaml:"id"`
	Status      OrderStatus `json:"status" yaml:"status"`
	Description string      `json:"description" yaml:"description"`
	Location    string      `json:"location" yaml:"location"`
	Date        string      `json:"date" yaml:"date"`
	Time        string      `json:"time" yaml:"time"`
	Icon        string      `json:"icon" yaml:"icon"`
	Completed   bool        `json:"completed" yaml:"completed"`
}

// OrderDetails содержит изменяемые через админку атрибуты заказа.
type OrderDetails struct {
	CollectionAddress     string      `json:"collectionAddress" yaml:"collectionAddress"`
	DeliveryAddress       string      `json:"deliveryAddress" yaml:"deliveryAddress"`
	CurrentStatus         OrderStatus `json:"currentStatus" yaml:"currentStatus"`
	EstimatedDeliveryDate string      `json:"estimatedDeliveryDate" yaml:"estimatedDeliveryDate"`
	Weight                string      `json:"weight" yaml:"weight"`
	Dimensions            string      `json:"dimensions" yaml:"dimensions"`
	PackageType           string      `json:"packageType" yaml:"packageType"`
	Urgent                bool        `json:"urgent" yaml:"urgent"`
	Refrigerated          bool        `json:"refrigerated" yaml:"refrigerated"`
	Insured               bool        `json:"insured" yaml:"insured"`
	Observations          string      `json:"observations" yaml:"observations"`
}

// Order описывает заказ на доставку и его историю.
//
// ClientID хранит нормализованный CPF владельца и разрешается поиском по клиентам,
// а не прямой ссылкой.
type Order struct {
	ID           string `json:"id" yaml:"id"`
	ClientID     string `json:"clientId" yaml:"clientId"`
	ClientName   string `json:"clientName,omitempty" yaml:"clientName"`
	OrderNumber  string `json:"orderNumber" yaml:"orderNumber"`
	OrderDetails `yaml:",inline"`
	Events       []Event `json:"events" yaml:"events"`
}

// Clone возвращает копию заказа с независимым срезом событий.
func (o Order) Clone() Order {
	c := o
	c.Events = append([]Event(nil), o.Events...)
	return c
}

// TrackingView описывает публичное представление заказа для страницы отслеживания.
type TrackingView struct {
	OrderNumber       string      `json:"orderNumber"`
	Status            OrderStatus `json:"status"`
	StatusColor       string      `json:"statusColor"`
	Recipient         string      `json:"recipient"`
	Phone             string      `json:"phone"`
	Origin            string      `json:"origin"`
	Destination       string      `json:"destination"`
	EstimatedDelivery string      `json:"estimatedDelivery"`
	Weight            string      `json:"weight"`
	Type              string      `json:"type"`
	Observations      string      `json:"observations"`
	Events            []Event     `json:"events"`
}

// Dashboard содержит сводку для панели администратора.
type Dashboard struct {
	Clients        int                 `json:"clients"`
	Orders         int                 `json:"orders"`
	OrdersByStatus map[OrderStatus]int `json:"ordersByStatus"`
}

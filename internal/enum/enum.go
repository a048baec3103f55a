package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPendente  = "pendente"
	OrderStatusEmPreparo = "em_preparo"
	OrderStatusPronto    = "pronto"
	OrderStatusEntregue  = "entregue"
	OrderStatusCancelado = "cancelado"
)

// ── Group B: Checkout wire values (contract with fn_criar_pedido) ──

const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypeRetirada = "retirada"
)

const (
	PaymentMethodDinheiro = "dinheiro"
	PaymentMethodPix      = "pix"
	PaymentMethodCredito  = "credito"
	PaymentMethodDebito   = "debito"
)

const (
	DiscountTypeValor      = "valor"
	DiscountTypePercentual = "percentual"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleStaff   = "STAFF"
)

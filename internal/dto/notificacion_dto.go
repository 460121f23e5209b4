package dto

type CrearNotificacionRequest struct {
	Tipo       string `json:"tipo"        validate:"required,oneof=stock_bajo sin_stock venta_alta manual"`
	Titulo     string `json:"titulo"      validate:"required,max=150"`
	Mensaje    string `json:"mensaje"     validate:"required"`
	UsuarioID  *uint  `json:"usuario_id"`
	ProductoID *uint  `json:"producto_id"`
	Prioridad  string `json:"prioridad"   validate:"omitempty,oneof=baja media alta"`
}

type ConfiguracionStockRequest struct {
	ProductoID   uint `json:"producto_id"   validate:"required,gt=0"`
	UmbralMinimo *int `json:"umbral_minimo" validate:"required,min=0"`
}

type NotificacionResponse struct {
	ID             uint    `json:"id"`
	Tipo           string  `json:"tipo"`
	Titulo         string  `json:"titulo"`
	Mensaje        string  `json:"mensaje"`
	ProductoID     *uint   `json:"producto_id"`
	UsuarioID      *uint   `json:"usuario_id"`
	Prioridad      string  `json:"prioridad"`
	Estado         string  `json:"estado"`
	Fecha          string  `json:"fecha"`
	ProductoNombre *string `json:"producto_nombre"`
	StockActual    *int    `json:"stock_actual"`
	UsuarioNombre  *string `json:"usuario_nombre"`
}

type ConfiguracionStockResponse struct {
	ID           uint   `json:"id"` // producto id
	Nombre       string `json:"nombre"`
	Codigo       string `json:"codigo"`
	Stock        int    `json:"stock"`
	UmbralMinimo int    `json:"umbral_minimo"`
	ConfigID     *uint  `json:"config_id"`
}

type StockBajoResponse struct {
	ProductoResponse
	UmbralMinimo int `json:"umbral_minimo"`
}

type GenerarAlertasResponse struct {
	Mensaje           string `json:"mensaje"`
	AlertasGeneradas  int    `json:"alertas_generadas"`
	AlertasArchivadas int    `json:"alertas_archivadas"`
}

type MensajeResponse struct {
	Mensaje string `json:"mensaje"`
}

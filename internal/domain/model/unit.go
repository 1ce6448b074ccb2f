// Пакет model — доменные модели unit-tracker.
// Unit — маппинг таблицы units.
package model

// Имена полей подразделения (совпадают со столбцами таблицы и JSON-ключами).
const (
	FieldID               = "id"
	FieldNameOfUnit       = "name_of_unit"
	FieldBrigadeOrHigher  = "brigade_or_higher"
	FieldMilUnit          = "mil_unit"
	FieldDescription      = "description"
	FieldEmail            = "email"
	FieldStatus           = "status"
	FieldDateWhenFinished = "date_when_finished"
	FieldComputerName     = "computer_name"
	FieldIPAddress        = "ip_address"
	FieldSendedToLegend   = "sended_to_legend"
)

// UnitFields — изменяемые поля подразделения.
// Используется как тело create/update: update заменяет запись целиком,
// незаданные необязательные поля сохраняются как NULL.
type UnitFields struct {
	// NameOfUnit — название подразделения
	NameOfUnit *string `json:"name_of_unit"`
	// BrigadeOrHigher — бригада или вышестоящее формирование
	BrigadeOrHigher *string `json:"brigade_or_higher"`
	// MilUnit — номер военной части (обязательный)
	MilUnit string `json:"mil_unit"`
	// Description — описание
	Description *string `json:"description"`
	// Email — контактный адрес
	Email *string `json:"email"`
	// Status — этап workflow
	Status string `json:"status"`
	// DateWhenFinished — дата завершения (YYYY-MM-DD), имеет смысл только для Done
	DateWhenFinished *string `json:"date_when_finished"`
	// ComputerName — имя рабочей станции
	ComputerName *string `json:"computer_name"`
	// IPAddress — IP-адрес рабочей станции
	IPAddress *string `json:"ip_address"`
	// SendedToLegend — флаг 0/1 передачи в Legend
	SendedToLegend *int `json:"sended_to_legend"`
}

// Unit — запись подразделения в таблице units.
type Unit struct {
	// ID — идентификатор, назначается хранилищем, монотонно растёт
	ID int64 `json:"id"`
	UnitFields
}

// StatusCount — количество подразделений с данным статусом.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Clone возвращает глубокую копию подразделения.
func (u *Unit) Clone() *Unit {
	if u == nil {
		return nil
	}
	c := &Unit{ID: u.ID, UnitFields: u.UnitFields.Clone()}
	return c
}

// Clone возвращает копию полей без общих указателей.
func (f UnitFields) Clone() UnitFields {
	return UnitFields{
		NameOfUnit:       cloneString(f.NameOfUnit),
		BrigadeOrHigher:  cloneString(f.BrigadeOrHigher),
		MilUnit:          f.MilUnit,
		Description:      cloneString(f.Description),
		Email:            cloneString(f.Email),
		Status:           f.Status,
		DateWhenFinished: cloneString(f.DateWhenFinished),
		ComputerName:     cloneString(f.ComputerName),
		IPAddress:        cloneString(f.IPAddress),
		SendedToLegend:   cloneInt(f.SendedToLegend),
	}
}

// StringPtr — вспомогательная функция для литералов необязательных полей.
func StringPtr(s string) *string {
	return &s
}

// IntPtr — вспомогательная функция для литералов необязательных полей.
func IntPtr(n int) *int {
	return &n
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

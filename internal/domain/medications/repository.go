package medications

import "context"

type Repository interface {
	Create(ctx context.Context, m Medication) error
	GetByID(ctx context.Context, id string) (Medication, error)
	ListByUser(ctx context.Context, userID string) ([]Medication, error)
	Delete(ctx context.Context, id string) error
}

// DoseRemover borra las dosis de un medicamento (lo implementa doses.Service).
// Se define acá para evitar ciclos de imports (medications <-> doses).
type DoseRemover interface {
	RemoveForMedication(ctx context.Context, m Medication) (int, error)
}

package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	contractdomain "github.com/smallbiznis/provisora/internal/contract/domain"
	costledgerdomain "github.com/smallbiznis/provisora/internal/costledger/domain"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	workforcedomain "github.com/smallbiznis/provisora/internal/workforce/domain"
)

// Fixed ids keep repeated seeding idempotent.
const (
	ContractShoppingNorte   snowflake.ID = 1001
	ContractHospitalCentral snowflake.ID = 1002
	ContractAeroporto       snowflake.ID = 1003
	ContractCondominio      snowflake.ID = 1004

	sampleYear = 2025
)

var sampleEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func SampleContracts() []contractdomain.Contract {
	return []contractdomain.Contract{
		{ID: ContractShoppingNorte, Name: "Shopping Center Norte", Client: "Norte Empreendimentos", Category: "limpeza", Status: contractdomain.StatusActive, MonthlyValue: d("150000"), TotalValue: d("1800000"), StartDate: date(2024, 1, 1), EndDate: date(2026, 12, 31), CreatedAt: sampleEpoch},
		{ID: ContractHospitalCentral, Name: "Hospital Central", Client: "Associação Hospitalar Central", Category: "higienização hospitalar", Status: contractdomain.StatusActive, MonthlyValue: d("100000"), TotalValue: d("1200000"), StartDate: date(2024, 6, 1), EndDate: date(2026, 5, 31), CreatedAt: sampleEpoch},
		{ID: ContractAeroporto, Name: "Aeroporto Regional", Client: "Concessionária Aeroportuária", Category: "facilities", Status: contractdomain.StatusActive, MonthlyValue: d("50000"), TotalValue: d("600000"), StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31), CreatedAt: sampleEpoch},
		{ID: ContractCondominio, Name: "Condomínio Parque das Flores", Client: "Condomínio Parque das Flores", Category: "portaria", Status: contractdomain.StatusSuspended, MonthlyValue: d("38000"), TotalValue: d("456000"), StartDate: date(2023, 3, 1), EndDate: date(2025, 2, 28), CreatedAt: sampleEpoch},
	}
}

func SampleEmployees() []workforcedomain.Employee {
	return []workforcedomain.Employee{
		{ID: 2001, ContractID: ContractShoppingNorte, Name: "Ana Souza", Role: "supervisora", BaseSalary: d("3200"), FringeRate: d("82"), HoursWorked: d("12"), HourlyRate: d("28"), Active: true, CreatedAt: sampleEpoch},
		{ID: 2002, ContractID: ContractShoppingNorte, Name: "Bruno Lima", Role: "auxiliar de limpeza", BaseSalary: d("1900"), FringeRate: d("78.5"), HoursWorked: d("20"), HourlyRate: d("16.50"), Active: true, CreatedAt: sampleEpoch},
		{ID: 2003, ContractID: ContractHospitalCentral, Name: "Carla Mendes", Role: "técnica de higienização", BaseSalary: d("2400"), FringeRate: d("85"), HoursWorked: d("8"), HourlyRate: d("22"), Active: true, CreatedAt: sampleEpoch},
		{ID: 2004, ContractID: ContractHospitalCentral, Name: "Diego Alves", Role: "auxiliar", BaseSalary: d("1900"), FringeRate: d("78.5"), HoursWorked: decimal.Zero, HourlyRate: d("16.50"), Active: false, CreatedAt: sampleEpoch},
		{ID: 2005, ContractID: ContractAeroporto, Name: "Elaine Costa", Role: "encarregada", BaseSalary: d("2800"), FringeRate: d("80"), HoursWorked: d("16"), HourlyRate: d("25"), Active: true, CreatedAt: sampleEpoch},
	}
}

type sampleProvision struct {
	contract    snowflake.ID
	name        string
	month       int
	predicted   string
	billed      string
	received    string
	status      provisiondomain.Status
	glosas      string
	descontoSLA string
	vendaMOE    string
	outros      string
	efetivo     int
	planejado   string
	executado   string
}

var sampleProvisionRows = []sampleProvision{
	{ContractShoppingNorte, "Shopping Center Norte", 6, "150000", "150000", "150000", provisiondomain.StatusNFEmitida, "0", "0", "2400", "0", 48, "21000", "20800"},
	{ContractShoppingNorte, "Shopping Center Norte", 7, "150000", "145000", "92000", provisiondomain.StatusNFEmitida, "2500", "1200", "3800", "1500", 48, "21000", "21950"},
	{ContractShoppingNorte, "Shopping Center Norte", 8, "150000", "0", "0", provisiondomain.StatusAguardandoPO, "0", "0", "0", "0", 47, "21000", "0"},
	{ContractHospitalCentral, "Hospital Central", 6, "100000", "108000", "108000", provisiondomain.StatusNFEmitida, "0", "0", "8000", "0", 32, "15500", "15500"},
	{ContractHospitalCentral, "Hospital Central", 7, "100000", "96500", "0", provisiondomain.StatusAguardandoSLA, "1800", "1700", "0", "0", 32, "15500", "16100"},
	{ContractHospitalCentral, "Hospital Central", 8, "100000", "0", "0", provisiondomain.StatusAguardandoPO, "0", "0", "0", "0", 31, "15500", "0"},
	{ContractAeroporto, "Aeroporto Regional", 6, "50000", "40000", "40000", provisiondomain.StatusNFEmitida, "3000", "7000", "0", "0", 14, "6800", "6950"},
	{ContractAeroporto, "Aeroporto Regional", 7, "50000", "47000", "0", provisiondomain.StatusAguardandoAprovacao, "0", "3000", "0", "750", 14, "6800", "6800"},
	{ContractAeroporto, "Aeroporto Regional", 8, "50000", "0", "0", provisiondomain.StatusAguardandoPO, "0", "0", "0", "0", 15, "6800", "0"},
}

// SampleProvisions returns the demo provision set in a stable order.
func SampleProvisions() []provisiondomain.Provision {
	out := make([]provisiondomain.Provision, 0, len(sampleProvisionRows))
	for i, row := range sampleProvisionRows {
		created := sampleEpoch.AddDate(0, row.month-1, 0)
		out = append(out, provisiondomain.Provision{
			ID:              snowflake.ID(3001 + i),
			ContractID:      row.contract,
			ContractName:    row.name,
			Month:           row.month,
			Year:            sampleYear,
			PredictedAmount: d(row.predicted),
			BilledAmount:    d(row.billed),
			ReceivedAmount:  d(row.received),
			Status:          row.status,
			DueDate:         date(sampleYear, time.Month(row.month)+1, 10),
			Glosas:          d(row.glosas),
			DescontoSLA:     d(row.descontoSLA),
			VendaMOE:        d(row.vendaMOE),
			Outros:          d(row.outros),
			Efetivo:         row.efetivo,
			FringePlanejado: d(row.planejado),
			FringeExecutado: d(row.executado),
			Revision:        1,
			CreatedAt:       created,
			UpdatedAt:       created,
		})
	}
	return out
}

func SampleCostEntries() []costledgerdomain.Entry {
	entry := func(id int64, contract snowflake.ID, month time.Month, day int, category costledgerdomain.Category, value string, status costledgerdomain.Status, supplier string) costledgerdomain.Entry {
		when := time.Date(sampleYear, month, day, 0, 0, 0, 0, time.UTC)
		return costledgerdomain.Entry{
			ID:         snowflake.ID(id),
			Date:       when,
			Category:   category,
			ContractID: contract,
			Value:      d(value),
			Status:     status,
			Supplier:   supplier,
			CostCenter: "CC-" + contract.String(),
			CreatedAt:  when,
			UpdatedAt:  when,
		}
	}
	return []costledgerdomain.Entry{
		entry(4001, ContractShoppingNorte, 7, 5, costledgerdomain.CategoryFolhaPagamento, "61200", costledgerdomain.StatusPago, "Folha interna"),
		entry(4002, ContractShoppingNorte, 7, 8, costledgerdomain.CategoryInsumos, "4350.90", costledgerdomain.StatusPago, "Distribuidora Alfa"),
		entry(4003, ContractShoppingNorte, 7, 12, costledgerdomain.CategoryEPI, "1280", costledgerdomain.StatusAprovado, "Segurança Total EPI"),
		entry(4004, ContractHospitalCentral, 7, 5, costledgerdomain.CategoryFolhaPagamento, "42800", costledgerdomain.StatusPago, "Folha interna"),
		entry(4005, ContractHospitalCentral, 7, 15, costledgerdomain.CategoryUniformes, "2100", costledgerdomain.StatusProcessando, "Confecções Beta"),
		entry(4006, ContractAeroporto, 7, 9, costledgerdomain.CategoryCombustivel, "980.40", costledgerdomain.StatusPendente, "Posto Rota Sul"),
		entry(4007, ContractAeroporto, 7, 20, costledgerdomain.CategoryManutencao, "3400", costledgerdomain.StatusPendente, "Manutec"),
		entry(4008, ContractAeroporto, 8, 2, costledgerdomain.CategoryAlimentacao, "1750", costledgerdomain.StatusAprovado, "Restaurante Central"),
	}
}

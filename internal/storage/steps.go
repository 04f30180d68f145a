package storage

import "lancamentos/internal/core"

// LatestVersion is the schema version written by this build. Bump it together
// with every new step.
const LatestVersion = 16

// steps is the schema history. Versions are contiguous from 1; a step that
// shipped without schema changes keeps its number with no actions. Steps with a
// CreateTable or CreateIndex action have a migrations/<version>_<name>.up.sql
// script.
var steps = []Step{
	{Version: 1, Name: "base tables", Actions: []Action{
		CreateTable{Names: []string{"categoria", "cartao", "lancamento"}},
	}},
	{Version: 2, Name: "category localization key", Actions: []Action{
		AddColumn{Table: "categoria", Column: "chave_localizacao", Definition: "TEXT"},
	}},
	{Version: 3, Name: "category parent", Actions: []Action{
		AddColumn{Table: "categoria", Column: "pai_id", Definition: "INTEGER REFERENCES categoria(id)"},
	}},
	{Version: 4, Name: "subcategory name", Actions: []Action{
		AddColumn{Table: "categoria", Column: "subcategoria", Definition: "TEXT"},
	}},
	{Version: 5, Name: "purchase date", Actions: []Action{
		AddColumn{Table: "lancamento", Column: "dia_compra", Definition: "INTEGER NOT NULL DEFAULT 0"},
		AddColumn{Table: "lancamento", Column: "mes_compra", Definition: "INTEGER NOT NULL DEFAULT 0"},
		AddColumn{Table: "lancamento", Column: "ano_compra", Definition: "INTEGER NOT NULL DEFAULT 0"},
		BulkUpdate{
			Table: "lancamento",
			Set:   "dia_compra = dia, mes_compra = mes, ano_compra = ano",
			Where: "ano_compra = 0",
		},
	}},
	{Version: 6, Name: "balance ledger", Actions: []Action{
		CreateTable{Names: []string{"saldo"}},
	}},
	{Version: 7, Name: "split entries", Actions: []Action{
		AddColumn{Table: "lancamento", Column: "dividido", Definition: "INTEGER NOT NULL DEFAULT 0"},
	}},
	{Version: 8, Name: "accounts", Actions: []Action{
		CreateTable{Names: []string{"account"}},
	}},
	{Version: 9, Name: "notification read flag", Actions: []Action{
		AddColumn{Table: "lancamento", Column: "notificacao_lida", Definition: "INTEGER NOT NULL DEFAULT 0"},
	}},
	{Version: 10, Name: "release without schema changes"},
	{Version: 11, Name: "entry currency", Actions: []Action{
		AddColumn{Table: "lancamento", Column: "moeda", Definition: "TEXT NOT NULL DEFAULT '" + core.DefaultCurrency + "'"},
	}},
	{Version: 12, Name: "normalize recurrence codes", Actions: []Action{
		BulkUpdate{
			Table: "lancamento",
			Set:   "repetir = ?",
			Where: "repetir NOT BETWEEN ? AND ?",
			Args:  []any{int(core.RecurrenceNone), int(core.RecurrenceNone), int(core.RecurrenceInstallment)},
		},
	}},
	{Version: 13, Name: "archived cards", Actions: []Action{
		AddColumn{Table: "cartao", Column: "arquivado", Definition: "INTEGER NOT NULL DEFAULT 0"},
	}},
	{Version: 14, Name: "account references", Actions: []Action{
		AddColumn{Table: "cartao", Column: "conta_uuid", Definition: "TEXT NOT NULL DEFAULT ''"},
		AddColumn{Table: "lancamento", Column: "conta_uuid", Definition: "TEXT NOT NULL DEFAULT ''"},
	}},
	{Version: 15, Name: "retire balance ledger", Actions: []Action{
		BulkUpdate{
			Table: "cartao",
			Set:   "conta_uuid = (SELECT uuid FROM account ORDER BY id LIMIT 1)",
			Where: "conta_uuid = '' AND EXISTS (SELECT 1 FROM account)",
		},
		BulkUpdate{
			Table: "lancamento",
			Set:   "conta_uuid = (SELECT uuid FROM account ORDER BY id LIMIT 1)",
			Where: "conta_uuid = '' AND EXISTS (SELECT 1 FROM account)",
		},
		DropTable{Name: "saldo"},
		ResetSettings{Keys: []string{core.DefaultPaymentMethodKey}},
	}},
	{Version: 16, Name: "entry period index", Actions: []Action{
		CreateIndex{Name: "idx_lancamento_periodo"},
	}},
}

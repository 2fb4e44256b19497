package identity

// Field-name aliases accepted by the tolerant lookups. Drafts written before
// the canonical schema used whichever name each step component chose; the
// canonical name is always first. Everything that reads these tables lives in
// resolver.go.
var (
	taxIDAliases = []string{
		"rut", "rut_empresa", "rutEmpresa", "RUT", "rut_cliente", "rutCliente", "tax_id", "taxId",
	}
	businessKeyAliases = []string{
		"empkey", "emp_key", "empKey", "EMPKEY", "empresa_id", "empresaId",
	}
	nameAliases = []string{
		"nombre", "razon_social", "razonSocial", "nombre_empresa", "nombreEmpresa", "name",
	}
	tradeNameAliases = []string{
		"nombre_fantasia", "nombreFantasia", "fantasia", "trade_name", "tradeName",
	}
	addressAliases = []string{
		"direccion", "domicilio", "direccion_comercial", "direccionComercial", "address",
	}
	phoneAliases = []string{
		"telefono", "fono", "telefono_contacto", "telefonoContacto", "phone",
	}
	emailAliases = []string{
		"email", "correo", "correo_electronico", "correoElectronico", "mail",
	}
)

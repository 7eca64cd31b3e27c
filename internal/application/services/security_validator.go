package services

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // registers ast.NewValueExpr

	"github.com/marketgate/backend/pkg/constants"
)

// maxQueryRows caps admin analytics result sets. Queries without an
// explicit LIMIT get this one injected.
const maxQueryRows = 1000

// SecurityValidator parses admin-supplied SQL and enforces the analytics
// sandbox: one statement, SELECT only, application tables only. The query
// is restored from the AST so only what the parser understood reaches the
// database.
type SecurityValidator struct {
	parser *parser.Parser
	tables map[string]bool
}

// NewSecurityValidator creates a new SecurityValidator
func NewSecurityValidator() *SecurityValidator {
	return &SecurityValidator{
		parser: parser.New(),
		tables: map[string]bool{
			constants.TableUser:        true,
			constants.TableFlow:        true,
			constants.TableAnswer:      true,
			constants.TableProgress:    true,
			constants.TableToolProfile: true,
		},
	}
}

// ValidateAndRewrite parses the SQL, validates it against the sandbox
// rules, and returns the normalized statement to execute.
func (v *SecurityValidator) ValidateAndRewrite(sql string) (string, error) {
	stmtNodes, _, err := v.parser.Parse(sql, "", "")
	if err != nil {
		return "", fmt.Errorf("SQL parse error: %v", err)
	}
	if len(stmtNodes) != 1 {
		return "", fmt.Errorf("only single SQL statements are allowed")
	}

	stmt := stmtNodes[0]
	selectStmt, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return "", fmt.Errorf("only SELECT statements are allowed in analytics")
	}

	visitor := &tableAllowlistVisitor{allowed: v.tables}
	stmt.Accept(visitor)
	if visitor.err != nil {
		return "", visitor.err
	}

	if selectStmt.Limit == nil {
		selectStmt.Limit = &ast.Limit{Count: ast.NewValueExpr(int64(maxQueryRows), "", "")}
	}

	var sb strings.Builder
	restoreCtx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := stmt.Restore(restoreCtx); err != nil {
		return "", fmt.Errorf("SQL restore error: %v", err)
	}
	return sb.String(), nil
}

// tableAllowlistVisitor walks the AST and rejects any table reference
// outside the application schema. Sessions are excluded on purpose: they
// hold live tokens.
type tableAllowlistVisitor struct {
	allowed map[string]bool
	err     error
}

func (v *tableAllowlistVisitor) Enter(in ast.Node) (ast.Node, bool) {
	if v.err != nil {
		return in, true
	}
	if t, ok := in.(*ast.TableName); ok {
		name := t.Name.L
		if t.Schema.L != "" {
			v.err = fmt.Errorf("access denied: schema-qualified table '%s.%s'", t.Schema.O, t.Name.O)
			return in, true
		}
		if !v.allowed[name] {
			v.err = fmt.Errorf("access denied: cannot query table '%s'", t.Name.O)
			return in, true
		}
	}
	return in, false
}

func (v *tableAllowlistVisitor) Leave(in ast.Node) (ast.Node, bool) {
	return in, true
}

package agent

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"
)

// ExpressionTool evaluates arithmetic expressions so the manager does not
// do mental math. It replaces the original's sandboxed code execution with
// a bounded evaluator: numbers, + - * / %, parentheses, unary minus.
func ExpressionTool() ToolDescriptor {
	return ToolDescriptor{
		Name:        "evaluate_expression",
		Description: "Evaluate an arithmetic expression, e.g. (1500*0.25)+7. Supports + - * / % and parentheses.",
		InputSchema: stringSchema(map[string]string{"expression": "the arithmetic expression"}, "expression"),
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			expr, err := strArg(args, "expression")
			if err != nil {
				return "", err
			}
			v, err := evalExpression(expr)
			if err != nil {
				return "", err
			}
			return strconv.FormatFloat(v, 'g', -1, 64), nil
		},
	}
}

func evalExpression(src string) (float64, error) {
	node, err := parser.ParseExpr(src)
	if err != nil {
		return 0, fmt.Errorf("invalid expression: %w", err)
	}
	return evalNode(node)
}

func evalNode(node ast.Expr) (float64, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return 0, fmt.Errorf("unsupported literal %s", n.Value)
		}
		return strconv.ParseFloat(n.Value, 64)
	case *ast.ParenExpr:
		return evalNode(n.X)
	case *ast.UnaryExpr:
		v, err := evalNode(n.X)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.SUB:
			return -v, nil
		case token.ADD:
			return v, nil
		}
		return 0, fmt.Errorf("unsupported unary operator %s", n.Op)
	case *ast.BinaryExpr:
		x, err := evalNode(n.X)
		if err != nil {
			return 0, err
		}
		y, err := evalNode(n.Y)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return x / y, nil
		case token.REM:
			if y == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return math.Mod(x, y), nil
		}
		return 0, fmt.Errorf("unsupported operator %s", n.Op)
	default:
		return 0, fmt.Errorf("unsupported expression")
	}
}

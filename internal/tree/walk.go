// Package tree обходит иерархии, дочерние узлы которых запрашиваются
// у удаленного сервиса по мере обхода.
//
// Порядок обхода совпадает с рекурсивным обходом в глубину: узел, затем
// все его поддерево, затем следующий соседний узел. Вместо рекурсии
// используется явный стек, поэтому глубина иерархии ограничена только
// памятью.
package tree

import (
	"context"
	"errors"
	"fmt"
)

var (
	// SkipChildren возвращается из VisitFunc, чтобы не спускаться в поддерево узла.
	SkipChildren = errors.New("skip children")
	// SkipAll возвращается из VisitFunc, чтобы завершить обход без ошибки.
	SkipAll = errors.New("skip all")
)

// Source источник иерархии.
type Source[N any] interface {
	// Children возвращает дочерние узлы контейнера.
	Children(ctx context.Context, node N) ([]N, error)
	// IsContainer сообщает, есть ли смысл запрашивать дочерние узлы.
	IsContainer(node N) bool
}

// Keyer может быть реализован источником, чтобы каждый узел посещался
// не более одного раза даже при циклах в удаленных данных. Узлы, для
// которых ok == false, не дедуплицируются.
type Keyer[N any] interface {
	Key(node N) (key string, ok bool)
}

// VisitFunc вызывается ровно один раз для каждого достижимого узла.
// Глубина корневых узлов равна нулю.
type VisitFunc[N any] func(node N, depth int) error

type frame[N any] struct {
	node  N
	depth int
}

// Walk обходит иерархию от roots и возвращает число посещенных узлов.
// При ошибке возвращается число узлов, посещенных до нее.
func Walk[N any](ctx context.Context, src Source[N], roots []N, visit VisitFunc[N]) (int, error) {
	keyer, _ := src.(Keyer[N])
	var seen map[string]struct{}
	if keyer != nil {
		seen = make(map[string]struct{})
	}

	stack := push(make([]frame[N], 0, len(roots)), roots, 0)
	visited := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return visited, err
		}

		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if keyer != nil {
			if key, ok := keyer.Key(top.node); ok {
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
		}

		visited++
		err := visit(top.node, top.depth)
		switch {
		case errors.Is(err, SkipAll):
			return visited, nil
		case errors.Is(err, SkipChildren):
			continue
		case err != nil:
			return visited, err
		}

		if !src.IsContainer(top.node) {
			continue
		}

		children, err := src.Children(ctx, top.node)
		if err != nil {
			return visited, fmt.Errorf("list children: %w", err)
		}
		stack = push(stack, children, top.depth+1)
	}

	return visited, nil
}

// Count возвращает число узлов, достижимых от roots.
func Count[N any](ctx context.Context, src Source[N], roots []N) (int, error) {
	return Walk(ctx, src, roots, func(N, int) error { return nil })
}

// push кладет узлы на стек в обратном порядке, чтобы первый оказался сверху.
func push[N any](stack []frame[N], nodes []N, depth int) []frame[N] {
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, frame[N]{node: nodes[i], depth: depth})
	}
	return stack
}

// Funcs собирает Source из функций.
type Funcs[N any] struct {
	ChildrenFunc    func(ctx context.Context, node N) ([]N, error)
	IsContainerFunc func(node N) bool
	KeyFunc         func(node N) (string, bool)
}

// Children реализует Source.
func (f Funcs[N]) Children(ctx context.Context, node N) ([]N, error) {
	if f.ChildrenFunc == nil {
		return nil, nil
	}
	return f.ChildrenFunc(ctx, node)
}

// IsContainer реализует Source.
func (f Funcs[N]) IsContainer(node N) bool {
	if f.IsContainerFunc == nil {
		return true
	}
	return f.IsContainerFunc(node)
}

// Key реализует Keyer.
func (f Funcs[N]) Key(node N) (string, bool) {
	if f.KeyFunc == nil {
		return "", false
	}
	return f.KeyFunc(node)
}

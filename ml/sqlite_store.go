package ml

import (
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS model_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS model_features (
    position INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tree_nodes (
    tree INTEGER NOT NULL,
    node INTEGER NOT NULL,
    feature_idx INTEGER NOT NULL,
    threshold REAL NOT NULL,
    left_child INTEGER NOT NULL,
    right_child INTEGER NOT NULL,
    value REAL NOT NULL,
    is_leaf INTEGER NOT NULL,
    PRIMARY KEY (tree, node)
);`

// sqliteDSN builds a file: URI for path. The path is percent-encoded so
// '?', '#' and '%' in file names reach SQLite as part of the name.
func sqliteDSN(path, mode string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: url.Values{"mode": {mode}}.Encode(),
	}
	return u.String(), nil
}

// ReadSQLite loads a model exported into a SQLite database. The file is
// opened read-only.
func ReadSQLite(path string) (*GBMRegressor, error) {
	dsn, err := sqliteDSN(path, "ro")
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	defer db.Close()

	model := &GBMRegressor{}
	if err := readMeta(db, model); err != nil {
		return nil, err
	}
	if err := readFeatures(db, model); err != nil {
		return nil, err
	}
	if err := readTrees(db, model); err != nil {
		return nil, err
	}
	return model, nil
}

func readMeta(db *sql.DB, model *GBMRegressor) error {
	rows, err := db.Query(`SELECT key, value FROM model_meta`)
	if err != nil {
		return fmt.Errorf("query model_meta failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		switch key {
		case "model_type":
			model.ModelType = value
		case "init_score":
			if model.InitScore, err = strconv.ParseFloat(value, 64); err != nil {
				return fmt.Errorf("init_score: %w", err)
			}
		case "learning_rate":
			if model.LearningRate, err = strconv.ParseFloat(value, 64); err != nil {
				return fmt.Errorf("learning_rate: %w", err)
			}
		}
	}
	return rows.Err()
}

func readFeatures(db *sql.DB, model *GBMRegressor) error {
	rows, err := db.Query(`SELECT position, name FROM model_features ORDER BY position`)
	if err != nil {
		return fmt.Errorf("query model_features failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			position int
			name     string
		)
		if err := rows.Scan(&position, &name); err != nil {
			return err
		}
		if position != len(model.Columns) {
			return fmt.Errorf("model_features: missing position %d", len(model.Columns))
		}
		model.Columns = append(model.Columns, name)
	}
	return rows.Err()
}

func readTrees(db *sql.DB, model *GBMRegressor) error {
	rows, err := db.Query(`
        SELECT tree, node, feature_idx, threshold, left_child, right_child, value, is_leaf
        FROM tree_nodes ORDER BY tree, node`)
	if err != nil {
		return fmt.Errorf("query tree_nodes failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tree, node int
			n          TreeNode
		)
		if err := rows.Scan(&tree, &node, &n.FeatureIdx, &n.Threshold, &n.LeftChild, &n.RightChild, &n.Value, &n.IsLeaf); err != nil {
			return err
		}
		if tree == len(model.Trees) {
			model.Trees = append(model.Trees, RegressionTree{})
		}
		if tree != len(model.Trees)-1 {
			return fmt.Errorf("tree_nodes: missing tree %d", len(model.Trees))
		}
		current := &model.Trees[tree]
		if node != len(current.Nodes) {
			return fmt.Errorf("tree_nodes: tree %d missing node %d", tree, len(current.Nodes))
		}
		current.Nodes = append(current.Nodes, n)
	}
	return rows.Err()
}

// WriteSQLite exports model into a SQLite database at path, replacing any
// model already stored there.
func WriteSQLite(path string, model *GBMRegressor) error {
	if err := model.Validate(); err != nil {
		return err
	}
	dsn, err := sqliteDSN(path, "rwc")
	if err != nil {
		return err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("open database failed: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create tables failed: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"model_meta", "model_features", "tree_nodes"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
	}

	modelType := model.ModelType
	if modelType == "" {
		modelType = ModelTypeGBM
	}
	meta := map[string]string{
		"model_type":    modelType,
		"init_score":    strconv.FormatFloat(model.InitScore, 'g', -1, 64),
		"learning_rate": strconv.FormatFloat(model.LearningRate, 'g', -1, 64),
	}
	for key, value := range meta {
		if _, err := tx.Exec(`INSERT INTO model_meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return err
		}
	}
	for i, name := range model.Columns {
		if _, err := tx.Exec(`INSERT INTO model_features (position, name) VALUES (?, ?)`, i, name); err != nil {
			return err
		}
	}

	stmt, err := tx.Prepare(`
        INSERT INTO tree_nodes (tree, node, feature_idx, threshold, left_child, right_child, value, is_leaf)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for t, tree := range model.Trees {
		for n, node := range tree.Nodes {
			if _, err := stmt.Exec(t, n, node.FeatureIdx, node.Threshold, node.LeftChild, node.RightChild, node.Value, node.IsLeaf); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
